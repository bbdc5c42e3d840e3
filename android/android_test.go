package android

import (
	"errors"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
)

type mapTable map[string][]string

func (m mapTable) Translations(key string) ([]string, bool) {
	v, ok := m[key]
	return v, ok
}

var testTable = mapTable{
	"hello":   {"hola", "bonjour"},
	"Mercury": {"Mercurio", "Mercure"},
	"Venus":   {"Venus ES", "Vénus"},
	"one day": {"un día", "un jour"},
	"%d days": {"%d días", "%d jours"},
	"short":   {"corto"},
}

func testOptions() Options {
	return Options{Logger: zerolog.Nop()}
}

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	d, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return d
}

func entryByName(d *Document, name string) *etree.Element {
	for _, e := range d.Entries() {
		if Name(e) == name {
			return e
		}
	}
	return nil
}

// reparse serializes d and parses the result again, as a consumer would.
func reparse(t *testing.T, d *Document) (*Document, string) {
	t.Helper()
	data, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	return mustParse(t, string(data)), string(data)
}

// ---------------------------------------------------------------------------
// Parse tests
// ---------------------------------------------------------------------------

func TestParse_MissingRoot(t *testing.T) {
	_, err := Parse([]byte(`<?xml version="1.0" encoding="utf-8"?><strings/>`))
	if !errors.Is(err, ErrMissingRoot) {
		t.Fatalf("err = %v, want ErrMissingRoot", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte(`<resources><string name=a>x</string></resources>`))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestParse_NestedRoot(t *testing.T) {
	d := mustParse(t, `<wrapper><resources><string name="a">hello</string></resources></wrapper>`)
	if d.Root().Tag != TagResources {
		t.Fatalf("root tag = %q", d.Root().Tag)
	}
	if len(d.Entries()) != 1 {
		t.Fatalf("entries = %d, want 1", len(d.Entries()))
	}
}

func TestParse_AddsDeclaration(t *testing.T) {
	d := mustParse(t, `<resources><string name="a">x</string></resources>`)
	data, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	if !strings.HasPrefix(string(data), `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Errorf("missing declaration:\n%s", data)
	}
}

func TestParse_KeepsDeclaration(t *testing.T) {
	d := mustParse(t, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<resources/>\n")
	data, _ := d.Bytes()
	if strings.Count(string(data), "<?xml") != 1 {
		t.Errorf("declaration duplicated:\n%s", data)
	}
	if !strings.Contains(string(data), `encoding="UTF-8"`) {
		t.Errorf("declared encoding not preserved:\n%s", data)
	}
}

// ---------------------------------------------------------------------------
// Rewrite tests
// ---------------------------------------------------------------------------

func TestRewrite_BasicString(t *testing.T) {
	src := `<?xml version="1.0" encoding="utf-8"?>
<resources>
    <string name="greeting">hello</string>
    <string name="other">not in table</string>
</resources>`

	for col, want := range []string{"hola", "bonjour"} {
		d := mustParse(t, src)
		st, err := d.Rewrite(testTable, col, testOptions())
		if err != nil {
			t.Fatalf("col %d: Rewrite error: %v", col, err)
		}
		if st.Replaced != 1 || st.Untouched != 1 || st.Removed != 0 {
			t.Errorf("col %d: stats = %+v", col, st)
		}

		out, raw := reparse(t, d)
		if got := TextContent(entryByName(out, "greeting")); got != want {
			t.Errorf("col %d: greeting = %q, want %q\n%s", col, got, want, raw)
		}
		if got := TextContent(entryByName(out, "other")); got != "not in table" {
			t.Errorf("col %d: other = %q, want unchanged", col, got)
		}
	}
}

func TestRewrite_TranslatableFlag(t *testing.T) {
	src := `<resources>
    <string name="app_name" translatable="false">hello</string>
    <string name="shout" translatable="FALSE">hello</string>
    <string name="yes" translatable="true">hello</string>
    <string name="odd" translatable="no">hello</string>
    <string name="plain">hello</string>
    <string-array name="config" translatable="False"><item>Mercury</item></string-array>
</resources>`

	d := mustParse(t, src)
	st, err := d.Rewrite(testTable, 0, testOptions())
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	if st.Removed != 3 {
		t.Errorf("Removed = %d, want 3", st.Removed)
	}

	out, raw := reparse(t, d)
	for _, name := range []string{"app_name", "shout", "config"} {
		if entryByName(out, name) != nil {
			t.Errorf("%s should be removed:\n%s", name, raw)
		}
	}
	for _, name := range []string{"yes", "odd", "plain"} {
		e := entryByName(out, name)
		if e == nil {
			t.Fatalf("%s missing:\n%s", name, raw)
		}
		if got := TextContent(e); got != "hola" {
			t.Errorf("%s = %q, want hola", name, got)
		}
	}
}

func TestRewrite_AdjacentRemovals(t *testing.T) {
	// No whitespace between entries: removing one must not skip the next.
	src := `<resources><string name="a" translatable="false">x</string><string name="b" translatable="false">y</string><string name="c">hello</string></resources>`

	d := mustParse(t, src)
	st, err := d.Rewrite(testTable, 1, testOptions())
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	if st.Removed != 2 {
		t.Errorf("Removed = %d, want 2", st.Removed)
	}
	if n := len(d.Entries()); n != 1 {
		t.Fatalf("entries left = %d, want 1", n)
	}
	if got := TextContent(d.Entries()[0]); got != "bonjour" {
		t.Errorf("c = %q, want bonjour", got)
	}
}

func TestRewrite_StringArray(t *testing.T) {
	src := `<resources>
    <string-array name="planets">
        <item>Mercury</item>
        <item>Venus</item>
        <item>Earth</item>
    </string-array>
</resources>`

	d := mustParse(t, src)
	st, err := d.Rewrite(testTable, 1, testOptions())
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	if st.Replaced != 2 || st.Untouched != 1 {
		t.Errorf("stats = %+v, want 2 replaced, 1 untouched", st)
	}

	out, _ := reparse(t, d)
	items := entryByName(out, "planets").ChildElements()
	want := []string{"Mercure", "Vénus", "Earth"}
	if len(items) != len(want) {
		t.Fatalf("items: got %d, want %d", len(items), len(want))
	}
	for i, w := range want {
		if got := TextContent(items[i]); got != w {
			t.Errorf("items[%d] = %q, want %q", i, got, w)
		}
	}
}

func TestRewrite_Plurals(t *testing.T) {
	src := `<resources>
    <plurals name="days">
        <item quantity="one">one day</item>
        <item quantity="other">%d days</item>
    </plurals>
</resources>`

	d := mustParse(t, src)
	if _, err := d.Rewrite(testTable, 0, testOptions()); err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}

	out, raw := reparse(t, d)
	items := entryByName(out, "days").ChildElements()
	if TextContent(items[0]) != "un día" || TextContent(items[1]) != "%d días" {
		t.Errorf("plurals not rewritten:\n%s", raw)
	}
	if items[1].SelectAttrValue("quantity", "") != "other" {
		t.Errorf("quantity attribute lost:\n%s", raw)
	}
}

func TestRewrite_MissingColumn(t *testing.T) {
	src := `<resources><string name="s">short</string></resources>`

	t.Run("error", func(t *testing.T) {
		d := mustParse(t, src)
		_, err := d.Rewrite(testTable, 1, testOptions())
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("err = %v, want ErrIndexOutOfRange", err)
		}
		if !strings.Contains(err.Error(), `name="s"`) {
			t.Errorf("error should name the entry: %v", err)
		}
	})

	t.Run("keep", func(t *testing.T) {
		d := mustParse(t, src)
		opts := testOptions()
		opts.OnMissingColumn = MissingColumnKeep
		st, err := d.Rewrite(testTable, 1, opts)
		if err != nil {
			t.Fatalf("Rewrite error: %v", err)
		}
		if st.Untouched != 1 {
			t.Errorf("Untouched = %d, want 1", st.Untouched)
		}
		if got := TextContent(d.Entries()[0]); got != "short" {
			t.Errorf("s = %q, want source text", got)
		}
	})
}

func TestRewrite_PreservesCommentsAndUnknownElements(t *testing.T) {
	src := `<resources>
    <!-- Section header -->
    <string name="greeting">hello</string>
    <dimen name="margin">16dp</dimen>
</resources>`

	d := mustParse(t, src)
	if _, err := d.Rewrite(testTable, 0, testOptions()); err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	data, _ := d.Bytes()
	out := string(data)
	if !strings.Contains(out, "<!-- Section header -->") {
		t.Errorf("comment lost:\n%s", out)
	}
	if !strings.Contains(out, `<dimen name="margin">16dp</dimen>`) {
		t.Errorf("unknown element changed:\n%s", out)
	}
	if !strings.Contains(out, `<string name="greeting">hola</string>`) {
		t.Errorf("greeting not rewritten:\n%s", out)
	}
}

func TestRewrite_CDATA(t *testing.T) {
	table := mapTable{"<b>Hi</b>": {"<b>Hola</b>"}}
	d := mustParse(t, `<resources><string name="html"><![CDATA[<b>Hi</b>]]></string></resources>`)
	if _, err := d.Rewrite(table, 0, testOptions()); err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	data, _ := d.Bytes()
	if !strings.Contains(string(data), `<![CDATA[<b>Hola</b>]]>`) {
		t.Errorf("CDATA wrapper not kept:\n%s", data)
	}
}

func TestRewrite_Escaping(t *testing.T) {
	table := mapTable{
		"Tom & Jerry": {"Tom y Jerry & co"},
		"Hi":          {"It's"},
	}
	src := `<resources><string name="tj">Tom &amp; Jerry</string><string name="hi">Hi</string></resources>`

	d := mustParse(t, src)
	opts := testOptions()
	opts.EscapeApostrophes = true
	if _, err := d.Rewrite(table, 0, opts); err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	data, _ := d.Bytes()
	out := string(data)
	if !strings.Contains(out, `<string name="tj">Tom y Jerry &amp; co</string>`) {
		t.Errorf("ampersand not escaped:\n%s", out)
	}
	if !strings.Contains(out, `<string name="hi">It\'s</string>`) {
		t.Errorf("apostrophe not escaped:\n%s", out)
	}
}

func TestTextContent_InlineMarkup(t *testing.T) {
	d := mustParse(t, `<resources><string name="x">Hello <b>big</b> world</string></resources>`)
	e := d.Entries()[0]
	if got := TextContent(e); got != "Hello big world" {
		t.Fatalf("TextContent = %q", got)
	}
	SetTextContent(e, "Hola")
	if len(e.ChildElements()) != 0 || TextContent(e) != "Hola" {
		t.Errorf("SetTextContent left children behind")
	}
}

// ---------------------------------------------------------------------------
// Summary / locale tests
// ---------------------------------------------------------------------------

func TestSummarize(t *testing.T) {
	d := mustParse(t, `<resources>
    <!-- c -->
    <string name="a">A</string>
    <string name="b" translatable="false">B</string>
    <string-array name="arr"><item>x</item><item>z</item></string-array>
    <plurals name="p"><item quantity="other">y</item></plurals>
    <color name="red">#f00</color>
</resources>`)

	got := d.Summarize()
	want := Summary{Strings: 2, StringArrays: 1, Plurals: 1, Items: 3, Other: 1, NonTranslatable: 1, Comments: 1}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestAndroidLocaleDirName(t *testing.T) {
	tests := map[string]string{
		"ru":         "values-ru",
		"pt-BR":      "values-pt-rBR",
		"es-419":     "values-es-r419",
		"zh-Hant":    "values-b+zh+Hant",
		"zh-Hant-TW": "values-b+zh+Hant+TW",
	}
	for in, want := range tests {
		if got := AndroidLocaleDirName(in); got != want {
			t.Errorf("AndroidLocaleDirName(%q) = %q, want %q", in, got, want)
		}
	}
}
