package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAddArgs extracts a feed URL and an optional title from /add arguments.
func ParseAddArgs(args string) (url, title string, err error) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return "", "", fmt.Errorf("feed URL is required")
	}
	url = parts[0]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", "", fmt.Errorf("invalid feed URL %q", url)
	}
	title = strings.Join(parts[1:], " ")
	return url, title, nil
}

// ParseIDArg extracts a numeric ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("subscription ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subscription ID %q", s)
	}
	return id, nil
}

// ParseTitleArgs extracts a subscription ID and a new title.
func ParseTitleArgs(args string) (int64, string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 {
		return 0, "", fmt.Errorf("usage: /title <id> <new title>")
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid subscription ID %q", parts[0])
	}
	title := strings.TrimSpace(parts[1])
	if title == "" {
		return 0, "", fmt.Errorf("title cannot be empty")
	}
	return id, title, nil
}
