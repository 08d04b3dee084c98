package fetch

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const commentPrefix = "#"

// filterLines reads r line by line, trims each line, drops '#' comment lines and
// concatenates the rest without separators. \n, \r\n and a lone \r all end a line.
func filterLines(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	var sb strings.Builder
	for {
		chunk, err := br.ReadString('\n')
		for _, line := range strings.Split(chunk, "\r") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, commentPrefix) {
				continue
			}
			sb.WriteString(line)
		}
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
	}
}
