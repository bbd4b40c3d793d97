// Package templates renders the HTML views of the desk. Markup lives in
// views.templ; run `templ generate` after editing it.
package templates

import (
	"fmt"

	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/tools"
)

// NoticeKind styles an upload notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a one-line message shown above the database list.
type Notice struct {
	Kind NoticeKind
	Text string
}

// PageData is everything the main page shows.
type PageData struct {
	Databases     []core.Summary
	Notices       []Notice
	Query         string
	Result        *core.LookupResult
	Error         *core.UserMessage
	Tools         []tools.Info
	Welcome       string
	RemoteEnabled bool
}

func kindLabel(k core.Kind) string {
	switch k {
	case core.KindJSON:
		return "JSON"
	case core.KindCSV:
		return "CSV"
	default:
		return "TXT"
	}
}

func dbMeta(db core.Summary) string {
	return fmt.Sprintf("%s • %d records", kindLabel(db.Kind), db.RecordCount)
}

func foundLine(res *core.LookupResult) string {
	return fmt.Sprintf("%d records in %d databases", res.Total, len(res.Results))
}
