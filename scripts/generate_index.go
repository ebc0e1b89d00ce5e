// Command generate_index writes the release download page: README.md and the
// dashboard key reference rendered to HTML, with the installation section
// replaced by links to the archives in the dist directory.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/oakwood-commons/sweepview/internal/ui"
)

const binaryName = "sweepview"

var archivePattern = regexp.MustCompile(`^` + binaryName + `_([^_]+(?:-[^_]+)*)_(?:Darwin|Linux|Windows)_(?:arm64|x86_64)\.(?:tar\.gz|zip)$`)

type platform struct {
	key, name string
}

var platforms = []struct {
	match []string
	platform
}{
	{[]string{"Darwin_arm64", "darwin_arm64"}, platform{"darwin-arm64", "macOS (Apple Silicon)"}},
	{[]string{"Darwin_x86_64", "darwin_amd64"}, platform{"darwin-amd64", "macOS (Intel)"}},
	{[]string{"Linux_arm64", "linux_arm64"}, platform{"linux-arm64", "Linux (ARM64)"}},
	{[]string{"Linux_x86_64", "linux_amd64"}, platform{"linux-amd64", "Linux (x86_64)"}},
	{[]string{"Windows_arm64", "windows_arm64"}, platform{"windows-arm64", "Windows (ARM64)"}},
	{[]string{"Windows_x86_64", "windows_amd64"}, platform{"windows-amd64", "Windows (x86_64)"}},
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <dist-dir>\n", os.Args[0])
		os.Exit(1)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(distDir string) error {
	readme, err := os.ReadFile("README.md")
	if err != nil {
		return fmt.Errorf("reading README.md: %w", err)
	}
	entries, err := os.ReadDir(distDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", distDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	body := toHTML(readme)
	body = replaceInstallation(body, downloadsHTML(names))
	body = append(body, toHTML(append([]byte("## Dashboard keys\n\n"), demoteHeadings(ui.HelpMarkdown())...))...)

	indexPath := filepath.Join(distDir, "index.html")
	f, err := os.Create(indexPath)
	if err != nil {
		return err
	}
	writeHeader(f)
	if _, err := f.Write(body); err != nil {
		f.Close()
		return err
	}
	writeFooter(f)
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Generated %s\n", indexPath)
	return nil
}

func toHTML(src []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.Render(p.Parse(src), renderer)
}

// demoteHeadings nests the key reference sections under its own heading.
func demoteHeadings(src []byte) []byte {
	lines := bytes.Split(src, []byte("\n"))
	for i, l := range lines {
		if bytes.HasPrefix(l, []byte("#")) {
			lines[i] = append([]byte("##"), l...)
		}
	}
	return bytes.Join(lines, []byte("\n"))
}

func versionOf(names []string) string {
	for _, n := range names {
		if m := archivePattern.FindStringSubmatch(n); len(m) >= 2 {
			return m[1]
		}
	}
	return "unknown"
}

func platformOf(name string) (platform, bool) {
	for _, p := range platforms {
		for _, m := range p.match {
			if strings.Contains(name, m) {
				return p.platform, true
			}
		}
	}
	return platform{}, false
}

func downloadsHTML(names []string) string {
	archives := make(map[string]string)
	labels := make(map[string]string)
	for _, n := range names {
		if !strings.HasSuffix(n, ".tar.gz") && !strings.HasSuffix(n, ".zip") {
			continue
		}
		if strings.Contains(n, "SHA256") {
			continue
		}
		p, ok := platformOf(n)
		if !ok {
			continue
		}
		if _, seen := archives[p.key]; !seen {
			archives[p.key] = n
			labels[p.key] = p.name
		}
	}
	keys := make([]string, 0, len(archives))
	for k := range archives {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, `  <div class="downloads">
    <h2>Downloads</h2>
    <div class="version-section">
      <h3>%s</h3>
      <table class="download-table">
`, versionOf(names))
	for _, k := range keys {
		fmt.Fprintf(&sb, `        <tr>
          <td class="platform-name">%s</td>
          <td class="platform-links"><a href="%s">download</a></td>
        </tr>
`, labels[k], archives[k])
	}
	sb.WriteString(`      </table>
    </div>
  </div>
`)
	return sb.String()
}

// replaceInstallation swaps the README installation section for the
// download table. Without such a section the page is left as is.
func replaceInstallation(page []byte, downloads string) []byte {
	s := string(page)
	start := strings.Index(s, `<h2 id="installation">`)
	if start == -1 {
		start = strings.Index(s, `<h2 id="install">`)
	}
	if start == -1 {
		return page
	}
	next := strings.Index(s[start+1:], `<h2 id="`)
	if next == -1 {
		return page
	}
	next += start + 1

	replacement := `<h2 id="installation">Installation</h2>

` + downloads + `
<p>Extract the archive and move the binary to your PATH:</p>

<pre><code class="language-bash"># macOS / Linux
tar -xzf ` + binaryName + `_*.tar.gz
sudo mv ` + binaryName + ` /usr/local/bin/

# Windows
# Extract the .zip file and add ` + binaryName + `.exe to your PATH
</code></pre>

`
	return []byte(s[:start] + replacement + s[next:])
}

func writeHeader(w io.Writer) {
	fmt.Fprint(w, `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>sweepview - Hyperparameter Sweep Dashboard</title>
  <style>
    body { font-family: system-ui, -apple-system, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; line-height: 1.6; color: #333; }
    h1 { color: #0f766e; border-bottom: 2px solid #0f766e; padding-bottom: 10px; }
    h2 { color: #115e59; margin-top: 30px; }
    h3, h4 { color: #134e4a; margin-top: 20px; }
    code { background: #f1f5f9; padding: 2px 6px; border-radius: 3px; font-family: Monaco, Menlo, monospace; font-size: 0.9em; }
    pre { background: #1e293b; color: #e2e8f0; padding: 16px; border-radius: 6px; overflow-x: auto; }
    pre code { background: none; color: inherit; padding: 0; }
    .downloads { background: #f0fdfa; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #0f766e; }
    .downloads h2 { margin-top: 0; }
    .version-section { margin: 15px 0; padding: 10px; background: white; border-radius: 4px; }
    .download-table { width: 100%; border-collapse: collapse; }
    .download-table td { padding: 6px 8px; }
    .platform-name { font-weight: 500; width: 200px; }
    .platform-links a { color: #0f766e; text-decoration: none; font-weight: 500; margin: 0 4px; }
  </style>
</head>
<body>
`)
}

func writeFooter(w io.Writer) {
	fmt.Fprint(w, `</body>
</html>
`)
}
