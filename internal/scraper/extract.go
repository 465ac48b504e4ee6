package scraper

import (
	"iter"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pfrederiksen/sports-calendar/internal/event"
	"github.com/pfrederiksen/sports-calendar/internal/logger"
)

// ProximityWindow is how many text lines, starting at a date line, may hold
// the rest of one event's signals.
const ProximityWindow = 8

var (
	// "Nov 15", "November 15", "Sept. 6", or numeric "11/15"
	dateSignal = regexp.MustCompile(`(?i)\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+\d{1,2}\b|\b\d{1,2}/\d{1,2}\b`)

	// "10:00 PM", "7 pm", "7:30p.m."
	timeSignal = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*[ap]\.?\s*m\b\.?`)

	// time text on a name line, with any trailing zone abbreviation
	timeWithZone = regexp.MustCompile(timeSignal.String() + `(?:\s*(?:ET|EST|EDT|CT|CST|CDT|MT|MST|MDT|PT|PST|PDT|UTC|GMT)\b)?`)

	weekdayText = regexp.MustCompile(`(?i)\b(?:mon|tues?|wed(?:nes)?|thu(?:rs?)?|fri|sat(?:ur)?|sun)(?:day)?\b\.?,?`)

	noiseLine = regexp.MustCompile(`(?i)^(?:buy )?tickets?$|^(?:watch(?: live)?|more|details|preview|results?|tbd|tba|live|espn\+?|ppv|main card|prelims?)$`)
)

var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tbody": true, "td": true, "tfoot": true, "th": true, "thead": true, "tr": true,
	"ul": true,
}

// Extract scans page for events whose name carries token and yields them in
// document order. It never fails: markup it cannot make sense of yields
// nothing. The page is parsed when iteration starts, so the sequence can be
// ranged over more than once.
func Extract(page, token string) iter.Seq[event.Candidate] {
	return func(yield func(event.Candidate) bool) {
		token = strings.TrimSpace(token)
		if token == "" {
			return
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
		if err != nil {
			logger.Warn("Schedule page is not parseable HTML", logger.Fields{"error": err.Error()})
			return
		}
		tokenPattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(token) + `\b`)
		scan(textLines(doc), tokenPattern, yield)
	}
}

// textLines flattens the visible text of doc into trimmed, non-empty lines.
// Block elements start new lines; inline elements run together.
func textLines(doc *goquery.Document) []string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	lines := make([]string, 0)
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func scan(lines []string, token *regexp.Regexp, yield func(event.Candidate) bool) {
	for i := 0; i < len(lines); i++ {
		dateText := dateSignal.FindString(lines[i])
		if dateText == "" {
			continue
		}

		c := event.Candidate{DateText: dateText}
		end := min(i+ProximityWindow, len(lines))
		nameAt, last := -1, i

		for j := i; j < end; j++ {
			line := lines[j]
			// the next event's date closes this one
			if j > i && dateSignal.MatchString(line) {
				break
			}
			last = j
			if c.TimeText == "" {
				c.TimeText = timeSignal.FindString(line)
			}
			if nameAt < 0 && token.MatchString(line) {
				c.Name = cleanName(line)
				nameAt = j
			}
			if nameAt >= 0 && c.TimeText != "" {
				break
			}
		}
		if nameAt < 0 || c.Name == "" {
			continue
		}

		for k := nameAt + 1; k < end; k++ {
			line := lines[k]
			if dateSignal.MatchString(line) {
				break
			}
			if timeSignal.MatchString(line) || noiseLine.MatchString(line) || !hasLetter(line) {
				continue
			}
			c.Location = line
			last = max(last, k)
			break
		}

		if !yield(c) {
			return
		}
		i = last
	}
}

// cleanName strips date and time text sharing the name's line. Weekday names
// are only stripped next to a date so that venues like "Mohegan Sun" survive.
func cleanName(line string) string {
	if dateSignal.MatchString(line) {
		line = dateSignal.ReplaceAllString(line, "")
		line = weekdayText.ReplaceAllString(line, "")
	}
	line = timeWithZone.ReplaceAllString(line, "")
	line = strings.Join(strings.Fields(line), " ")
	return strings.Trim(line, " -–—|·•,;:")
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
