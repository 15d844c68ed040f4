package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/neilberkman/researchtrail/internal/core/models"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	timeOfDayLayout = "15:04:05"
	noTitle         = "No Title"
)

// Markdown renders a session and its notes. Output depends only on the
// arguments; loc defaults to UTC.
func Markdown(session *models.Session, notes string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder

	fmt.Fprintf(&b, "# Research session: %s\n\n", singleLine(session.TopicName))

	fmt.Fprintf(&b, "- **Session ID**: %s\n", session.ID)
	fmt.Fprintf(&b, "- **Started**: %s\n", session.Started().In(loc).Format(timestampLayout))
	if session.EndedAt != nil {
		fmt.Fprintf(&b, "- **Ended**: %s\n", session.Ended().In(loc).Format(timestampLayout))
		fmt.Fprintf(&b, "- **Duration**: %s\n", FormatDuration(session.Duration()))
	}
	fmt.Fprintf(&b, "- **Total pages**: %d\n\n", len(session.Pages))

	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		b.WriteString("## Notes\n\n")
		b.WriteString(trimmed)
		b.WriteString("\n\n")
	}

	b.WriteString("## Pages\n\n")
	b.WriteString("| # | Time | Title | URL |\n")
	b.WriteString("|---|------|-------|-----|\n")

	pages := make([]models.PageEntry, len(session.Pages))
	copy(pages, session.Pages)
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Order < pages[j].Order })

	for _, p := range pages {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			title = noTitle
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			p.Order,
			models.FromMillis(p.OpenedAt).In(loc).Format(timeOfDayLayout),
			escapeCell(title),
			escapeCell(p.URL),
		)
	}

	return b.String()
}

// FormatDuration renders d as "Xm Ys"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

// escapeCell keeps a value inside one table cell
var cellEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`)

func escapeCell(s string) string {
	return cellEscaper.Replace(singleLine(s))
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Filename returns research_session_<topic>_<id>.<ext>
func Filename(session *models.Session, ext string) string {
	if ext == "" {
		ext = "md"
	}
	return fmt.Sprintf("research_session_%s_%s.%s", Slug(session.TopicName), session.ID, ext)
}

// Slug reduces a topic to letters, digits and underscores
func Slug(topic string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(topic) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			pendingSep = false
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}

// MarkdownExporter exports sessions as markdown documents
type MarkdownExporter struct {
	Location *time.Location
}

// Export writes the markdown rendering of doc
func (e *MarkdownExporter) Export(doc Document, w io.Writer) error {
	_, err := io.WriteString(w, Markdown(doc.Session, doc.Notes, e.Location))
	return err
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
