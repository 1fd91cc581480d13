// Package extract evaluates selectors against parsed HTML and resolves links.
//
// Selectors come in two dialects. XPath is evaluated with
// github.com/antchfx/htmlquery and matches the expressions scraping tools
// commonly use (".//a/text()", ".//@href", "((.//td)[2])/text()").
// CSS is evaluated with github.com/PuerkitoBio/goquery for sites where a
// class selector reads better than a path.
//
// Both dialects work on *html.Node from golang.org/x/net/html, so a
// document parsed once can be queried with either.
package extract
