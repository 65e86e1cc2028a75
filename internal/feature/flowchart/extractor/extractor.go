// Package extractor は生成モデルの自由形式な出力からMermaidダイアグラムを取り出します。
// 抽出は失敗しません。見つからない場合は NotFound を返します。
package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NotFound は抽出に失敗したときに返される固定文字列です。
const NotFound = "No valid MermaidJS chart found."

const (
	ModeLenient = "lenient"
	ModeStrict  = "strict"

	openFence  = "```mermaid"
	closeFence = "```"
)

// Extractor extracts a diagram description from raw model output.
type Extractor interface {
	Extract(raw string) string
}

// New は mode に対応する Extractor を返します。不明なモードは lenient として扱います。
func New(mode string) Extractor {
	if strings.EqualFold(strings.TrimSpace(mode), ModeStrict) {
		return strict{}
	}
	return lenient{}
}

// lenient はフェンス内の内容をそのまま返します。
type lenient struct{}

func (lenient) Extract(raw string) string {
	body, ok := fencedBody(raw)
	if !ok {
		return NotFound
	}

	out := strings.TrimSpace(body)
	if out == "" {
		return NotFound
	}
	return out
}

// fencedBody は最初の ```mermaid ブロックの中身を返します。
// タグの直後は空白である必要があり、```mermaidjs のような別の言語タグは読み飛ばします。
func fencedBody(raw string) (string, bool) {
	for rest := raw; ; {
		start := strings.Index(rest, openFence)
		if start < 0 {
			return "", false
		}
		rest = rest[start+len(openFence):]
		if rest == "" {
			return "", false
		}
		if r, _ := utf8.DecodeRuneInString(rest); !unicode.IsSpace(r) {
			continue
		}

		end := strings.Index(rest, closeFence)
		if end < 0 {
			return "", false
		}
		return rest[:end], true
	}
}

// diagramKeywords はダイアグラムの種類を表す先頭キーワードです。
// stateDiagram-v2 は stateDiagram より先に照合する必要があります。
var diagramKeywords = []string{
	"graph", "flowchart", "sequenceDiagram", "classDiagram", "stateDiagram-v2", "stateDiagram",
	"erDiagram", "journey", "gantt", "pie", "gitGraph", "mindmap", "timeline", "quadrantChart",
	"requirementDiagram", "C4Context", "sankey-beta", "xychart-beta", "block-beta",
}

var (
	keywordRe     = regexp.MustCompile(`(?:^|[\s;])(` + alternation(diagramKeywords) + `)(?:$|[\s;])`)
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	spaceRunRe    = regexp.MustCompile(`[ \t\f\v\r]+`)
)

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// strict はダイアグラム種別のキーワードで開始位置を決め、HTMLコメントと余分な空白を取り除きます。
type strict struct{}

func (strict) Extract(raw string) string {
	body, ok := fencedBody(raw)
	if !ok {
		return NotFound
	}
	body = htmlCommentRe.ReplaceAllString(body, "")

	loc := keywordRe.FindStringSubmatchIndex(body)
	if loc == nil {
		return NotFound
	}
	body = body[loc[2]:]

	lines := strings.Split(body, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return NotFound
	}
	return strings.Join(kept, "\n")
}
