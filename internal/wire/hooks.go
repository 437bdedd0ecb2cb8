package wire

import "strings"

// HookCategory is one subscribable event category.
type HookCategory uint16

const (
	HookHook HookCategory = 1 << iota
	HookNavigation
	HookLoadFinished
	HookLoadCommitted
	HookCloseTab
	HookNewTab
	HookFocusTab
	HookExecute
	HookChangeMode
	HookDownloadFinished
	HookDocumentFinished
)

var hookNames = []struct {
	hook HookCategory
	name string
}{
	{HookHook, "hook"},
	{HookNavigation, "navigation"},
	{HookLoadFinished, "load_finished"},
	{HookLoadCommitted, "load_committed"},
	{HookCloseTab, "close_tab"},
	{HookNewTab, "new_tab"},
	{HookFocusTab, "focus_tab"},
	{HookExecute, "execute"},
	{HookChangeMode, "change_mode"},
	{HookDownloadFinished, "download_finished"},
	{HookDocumentFinished, "document_finished"},
}

func (h HookCategory) String() string {
	for _, entry := range hookNames {
		if entry.hook == h {
			return entry.name
		}
	}
	return ""
}

// LookupHook resolves a category by its wire name.
func LookupHook(name string) (HookCategory, bool) {
	for _, entry := range hookNames {
		if entry.name == name {
			return entry.hook, true
		}
	}
	return 0, false
}

// HookMask is the set of categories a server currently broadcasts.
type HookMask uint16

// ParseHooks folds category names into a mask. Unknown names are ignored.
func ParseHooks(names []string) HookMask {
	var mask HookMask
	for _, name := range names {
		if hook, ok := LookupHook(strings.TrimSpace(name)); ok {
			mask |= HookMask(hook)
		}
	}
	return mask
}

func (m HookMask) Has(h HookCategory) bool {
	return m&HookMask(h) != 0
}

// Names lists the set categories in bit order.
func (m HookMask) Names() []string {
	var names []string
	for _, entry := range hookNames {
		if m.Has(entry.hook) {
			names = append(names, entry.name)
		}
	}
	return names
}
