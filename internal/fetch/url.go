package fetch

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/arvos-app/arvos-fetch/internal/domain"
)

// Platform is the constant value of the plat query parameter.
const Platform = "Android"

const (
	manifestSuffix  = ".json"
	minAuthorKeyLen = 20
)

// BuildURL decorates raw with the session query parameters.
//
// Manifest URLs (suffix .json) are returned unchanged. Otherwise the parameters are
// spliced in after the first '?', else after the first '#', else appended after a new
// '#'. A splice leaves a trailing '&' before the original remainder, and ver is
// emitted twice.
func BuildURL(raw string, s domain.Session) string {
	if strings.HasSuffix(raw, manifestSuffix) {
		return raw
	}

	query := buildQuery(raw, s)

	switch {
	case strings.Contains(raw, "?"):
		return strings.Replace(raw, "?", "?"+query+"&", 1)
	case strings.Contains(raw, "#"):
		return strings.Replace(raw, "#", "#"+query+"&", 1)
	default:
		return raw + "#" + query
	}
}

func buildQuery(raw string, s domain.Session) string {
	var sb strings.Builder
	sb.WriteString("id=")
	sb.WriteString(url.QueryEscape(s.SessionID))
	sb.WriteString("&lat=")
	sb.WriteString(formatFloat(s.Latitude))
	sb.WriteString("&lon=")
	sb.WriteString(formatFloat(s.Longitude))
	sb.WriteString("&azi=")
	sb.WriteString(formatFloat(s.CorrectedAzimuth))
	sb.WriteString("&aut=")
	sb.WriteString(strconv.FormatBool(s.IsAuthor))

	ver := strconv.Itoa(s.Version)
	sb.WriteString("&ver=")
	sb.WriteString(ver)
	sb.WriteString("&ver=")
	sb.WriteString(ver)
	sb.WriteString("&plat=")
	sb.WriteString(Platform)

	if s.AugmentsURL != "" && raw == s.AugmentsURL {
		if s.IsAuthor && len(s.AuthorKey) >= minAuthorKeyLen {
			sb.WriteString("&akey=")
			sb.WriteString(url.QueryEscape(s.AuthorKey))
		}
		if len(s.DeveloperKey) > 0 {
			sb.WriteString("&dkey=")
			sb.WriteString(url.QueryEscape(s.DeveloperKey))
		}
	}
	return sb.String()
}

// formatFloat renders v the way legacy clients sent coordinates: shortest decimal with
// at least one fractional digit, switching to E notation outside [1e-3, 1e7).
// 48 becomes "48.0" and 0.00001 becomes "1.0E-5".
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		out := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(out, ".") {
			out += ".0"
		}
		return out
	}

	// Go renders 1e-05 as "1E-05"; the legacy form is "1.0E-5".
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(v, 'E', -1, 64), "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(n)
}
