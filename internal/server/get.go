package server

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const nullValue = "null"

// tabFields depend on a tab and honour the optional index.
var tabFields = map[string]bool{"uri": true, "title": true, "host": true, "domain": true}

// get answers read-only queries: get [n] <field>, where n is a 1-based tab
// index defaulting to the current tab. Fields that do not depend on a tab
// ignore n.
func (s *Server) get(ctx context.Context, args []string) (string, bool, error) {
	tabs := s.browser.Tabs()
	current := s.browser.CurrentTab()

	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			args = args[1:]
			if tabFields[args[0]] {
				if n < 1 || n > len(tabs) {
					return "", false, fmt.Errorf("tab %d of %d: %w", n, len(tabs), ErrNoSuchTab)
				}
				current = n - 1
			}
		}
	}

	field := args[0]
	switch field {
	case "ntabs":
		return strconv.Itoa(len(tabs)), true, nil
	case "current_tab":
		return strconv.Itoa(s.browser.CurrentTab() + 1), true, nil
	case "all_uris":
		return joinTabs(tabs, func(t Tab) string { return t.URI }), true, nil
	case "all_titles":
		return joinTabs(tabs, func(t Tab) string { return t.Title }), true, nil
	case "all_hosts":
		return joinTabs(tabs, func(t Tab) string { return hostOf(t.URI) }), true, nil
	case "all_domains":
		return joinTabs(tabs, func(t Tab) string { return domainOf(t.URI) }), true, nil
	case "profile":
		return s.browser.Profile(), true, nil
	case "session":
		return s.browser.Session(), true, nil
	case "history":
		entries, err := s.browser.History(ctx)
		if err != nil {
			return "", false, &CommandError{Code: 1, Err: fmt.Errorf("read history: %w", err)}
		}
		return strings.Join(entries, "\n"), true, nil
	case "setting":
		if len(args) < 2 {
			return "", false, ErrUsage
		}
		return s.settingValue(args[1]), true, nil
	case "uri", "title", "host", "domain":
	default:
		return "", false, fmt.Errorf("%q: %w", field, ErrUnknownField)
	}

	if current < 0 || current >= len(tabs) {
		return "", false, ErrNoSuchTab
	}
	tab := tabs[current]
	switch field {
	case "uri":
		return tab.URI, true, nil
	case "title":
		return tab.Title, true, nil
	case "host":
		return hostOf(tab.URI), true, nil
	default:
		return domainOf(tab.URI), true, nil
	}
}

func joinTabs(tabs []Tab, field func(Tab) string) string {
	values := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		values = append(values, field(tab))
	}
	return strings.Join(values, "\n")
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nullValue
	}
	return u.Hostname()
}

// domainOf returns the registrable domain (eTLD+1) of raw.
func domainOf(raw string) string {
	host := hostOf(raw)
	if host == nullValue || net.ParseIP(host) != nil {
		return nullValue
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return nullValue
	}
	return domain
}
