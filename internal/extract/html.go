package extract

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// breakingAtoms are the structural elements whose boundaries split the
// document into speakable blocks. Crossing one of them in either direction
// flushes the text accumulated so far into its own block.
var breakingAtoms = map[atom.Atom]bool{
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.P:          true,
	atom.Blockquote: true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Li:         true,
	atom.Dl:         true,
	atom.Dt:         true,
	atom.Dd:         true,
	atom.Img:        true,
}

// skipAtoms contain no speakable text at all.
var skipAtoms = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
}

// selfClosingSkipTagPattern matches self-closed raw-text tags such as
// <script src="..."/>. The tokenizer switches into raw-text mode on these
// names regardless of the trailing slash and would then swallow the rest of
// the document looking for a closing tag, so we expand them first.
var selfClosingSkipTagPattern = regexp.MustCompile(`(?is)<(script|style|noscript)\b([^>]*)/>`)

func normalizeSelfClosingSkipTags(data []byte) []byte {
	return selfClosingSkipTagPattern.ReplaceAll(data, []byte("<$1$2></$1>"))
}

// document is the speakable view of a single chapter file.
type document struct {
	title  string
	blocks []string
}

// parseDocument tokenizes one XHTML chapter and splits its body text into
// blocks along structural element boundaries. Images become a short spoken
// description built from their alt attribute.
func parseDocument(data []byte) (*document, error) {
	tokenizer := html.NewTokenizer(bytes.NewReader(normalizeSelfClosingSkipTags(data)))

	doc := &document{}
	var block strings.Builder
	var title strings.Builder

	flush := func() {
		if block.Len() > 0 {
			doc.blocks = append(doc.blocks, block.String())
			block.Reset()
		}
	}

	inBody := false
	sawBody := false
	inTitle := false
	titleDone := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if err := tokenizer.Err(); !errors.Is(err, io.EOF) {
				return nil, err
			}
			if !sawBody {
				return nil, errors.New("document has no body element")
			}
			doc.title = strings.TrimSpace(title.String())
			return doc, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			a := atom.Lookup(name)

			if skipAtoms[a] {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}

			switch {
			case a == atom.Body:
				inBody = true
				sawBody = true
			case a == atom.Title && !titleDone:
				inTitle = true
			case inBody && a == atom.Img:
				flush()
				doc.blocks = append(doc.blocks, imageDescription(tokenizer, hasAttr))
			case inBody && breakingAtoms[a]:
				flush()
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			a := atom.Lookup(name)

			if skipAtoms[a] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}

			switch {
			case a == atom.Body:
				flush()
				inBody = false
			case a == atom.Title:
				inTitle = false
				titleDone = true
			case inBody && breakingAtoms[a]:
				flush()
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := string(tokenizer.Text())
			if inTitle {
				title.WriteString(text)
			} else if inBody {
				block.WriteString(text)
			}
		}
	}
}

// imageDescription drains the tag's attributes looking for alt text.
func imageDescription(tokenizer *html.Tokenizer, hasAttr bool) string {
	alt := ""
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = tokenizer.TagAttr()
		if string(key) == "alt" {
			alt = string(val)
		}
	}
	if strings.TrimSpace(alt) == "" {
		return "Image without a description"
	}
	return "Image with description " + alt
}

// collapseWhitespace folds runs of whitespace into single spaces and trims
// the ends. Used for the raw, human-readable form of a block.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
