package har

import "net/url"

func hostOf(rawUrl string) string {
	parsed, err := url.Parse(rawUrl)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return parsed.Hostname()
}
