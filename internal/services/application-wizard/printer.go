package applicationwizard

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"formassist/internal/models"
	"formassist/pkg/registry"
)

const (
	pageWidth   = 72
	blankValue  = "________________"
	declaration = "I hereby declare that the information provided above is true and correct to the best of my knowledge and belief. " +
		"I understand that any false information may result in the rejection of this application and/or legal action."
	footer = "This is a computer-generated application form. For official use only."
)

// Section is one lettered part of the printed form. A section without keys
// collects every field not printed elsewhere.
type Section struct {
	Title string
	Keys  []string
}

// PrintedSections is the layout of the official form.
var PrintedSections = []Section{
	{Title: "SECTION A: PERSONAL DETAILS", Keys: []string{"full_name", "fathers_name", "mothers_name", "date_of_birth", "gender"}},
	{Title: "SECTION B: IDENTITY PROOF", Keys: []string{"aadhaar_number", "pan_number"}},
	{Title: "SECTION C: CONTACT INFORMATION", Keys: []string{"mobile_number", "email"}},
	{Title: "SECTION D: ADDRESS DETAILS", Keys: []string{"address", "village", "tehsil", "district", "state", "pincode"}},
	{Title: "SECTION E: ADDITIONAL INFORMATION"},
}

// Document is what gets printed.
type Document struct {
	FormType  string
	SessionID string
	Fields    models.FinalForm
}

// Printer renders the official form as plain text.
type Printer struct {
	catalog *registry.Catalog
	now     func() time.Time
}

func NewPrinter(catalog *registry.Catalog) *Printer {
	if catalog == nil {
		catalog = registry.Default()
	}
	return &Printer{catalog: catalog, now: time.Now}
}

// ApplicationNumber is the first twelve characters of the session id,
// upper-cased.
func ApplicationNumber(sessionID string) string {
	if len(sessionID) > 12 {
		sessionID = sessionID[:12]
	}
	return strings.ToUpper(sessionID)
}

func (p *Printer) Render(out io.Writer, doc Document) error {
	w := bufio.NewWriter(out)
	rule := strings.Repeat("=", pageWidth)

	fmt.Fprintln(w, rule)
	for _, line := range []string{"GOVERNMENT OF INDIA", "Department of Revenue", "Official Application Form", p.catalog.FormTitle(doc.FormType)} {
		fmt.Fprintln(w, center(line))
	}
	fmt.Fprintln(w, rule)

	left := "Application Number: " + ApplicationNumber(doc.SessionID)
	right := "Date: " + p.now().Format("2/1/2006")
	gap := pageWidth - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		gap = 1
	}
	fmt.Fprintf(w, "%s%s%s\n", left, strings.Repeat(" ", gap), right)

	printed := make(map[string]bool)
	for _, sec := range PrintedSections {
		for _, k := range sec.Keys {
			printed[k] = true
		}
	}

	for _, sec := range PrintedSections {
		keys := sec.Keys
		if len(keys) == 0 {
			keys = remaining(doc.Fields, printed)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, sec.Title)
		fmt.Fprintln(w, strings.Repeat("-", utf8.RuneCountInString(sec.Title)))

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, k := range keys {
			value := doc.Fields[k]
			if value != "" && p.catalog.IsLongText(k) {
				// Long text goes under its label, outside the aligned columns.
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(w, "  %s:\n", p.catalog.FieldLabel(k))
				for _, line := range wrap(value, pageWidth-4) {
					fmt.Fprintf(w, "    %s\n", line)
				}
				continue
			}
			if value == "" {
				value = blankValue
			}
			fmt.Fprintf(tw, "  %s:\t%s\n", p.catalog.FieldLabel(k), value)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "DECLARATION")
	for _, line := range wrap(declaration, pageWidth) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Applicant's Signature: ____________________      Date: ____________")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, center(footer))
	return w.Flush()
}

func remaining(fields models.FinalForm, printed map[string]bool) []string {
	var keys []string
	for k := range fields {
		if !printed[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func center(s string) string {
	n := utf8.RuneCountInString(s)
	if n >= pageWidth {
		return s
	}
	return strings.Repeat(" ", (pageWidth-n)/2) + s
}

func wrap(text string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && utf8.RuneCountInString(cur.String())+1+utf8.RuneCountInString(word) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
