package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLStripsScripts(t *testing.T) {
	t.Parallel()

	out := HTML(`<p>hello</p><script>alert("x")</script>`)
	assert.Equal(t, "<p>hello</p>", out)
}

func TestHTMLKeepsBasicMarkup(t *testing.T) {
	t.Parallel()

	out := HTML(`<p><strong>bold</strong> and <em>italic</em></p>`)
	assert.Equal(t, `<p><strong>bold</strong> and <em>italic</em></p>`, out)
}

func TestHTMLHardensLinks(t *testing.T) {
	t.Parallel()

	out := HTML(`<a href="https://example.com">link</a>`)
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, "noreferrer")
}

func TestHTMLDropsEventHandlers(t *testing.T) {
	t.Parallel()

	out := HTML(`<img src="/x.png" onerror="steal()">`)
	assert.False(t, strings.Contains(out, "onerror"))
}

func TestText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a title", Text("  <b>a title</b> "))
	assert.Equal(t, "", Text("<script>x</script>"))
}
