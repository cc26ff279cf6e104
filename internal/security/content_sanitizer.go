// Package security はアプリケーションのセキュリティ機能を提供する。
//
// 外部APIへの送信を保護するOutboundGuardと、チャット応答や会員の入力テキストを
// 表示前に無害化するContentSanitizerを含む。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer はHTMLとテキストのサニタイズ機能のインターフェースを定義する。
type ContentSanitizer interface {
	// SanitizeHTML はMarkdownから生成したHTMLを許可リストでサニタイズする。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em, h1-h4, hr）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	SanitizeHTML(rawHTML string) string

	// SanitizeText は全てのタグを除去する。進捗メモなど会員が入力したテキストに使う。
	SanitizeText(raw string) string
}

// contentSanitizer はContentSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type contentSanitizer struct {
	html *bluemonday.Policy
	text *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerの新しいインスタンスを生成する。
func NewContentSanitizer() ContentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "h1", "h2", "h3", "h4", "hr",
	)

	// リンクはhttpsの絶対URLのみ
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("https")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		html: p,
		text: bluemonday.StrictPolicy(),
	}
}

// SanitizeHTML はHTMLをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) SanitizeHTML(rawHTML string) string {
	return s.html.Sanitize(rawHTML)
}

// SanitizeText は全てのタグを除去したテキストを返す。
func (s *contentSanitizer) SanitizeText(raw string) string {
	return s.text.Sanitize(raw)
}
