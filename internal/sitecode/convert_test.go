package sitecode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"site-generator-backend/internal/sitecode"
)

func TestConvert_ClassNameAndHtmlFor(t *testing.T) {
	in := `<label htmlFor="email" className="text-sm">E-mail</label><input className = {"border"} />`
	res := sitecode.Convert(in, sitecode.Options{ConvertClassName: true, RemoveComplexExpressions: true})

	assert.NotContains(t, res.HTML, "className=")
	assert.NotContains(t, res.HTML, "htmlFor=")
	assert.Contains(t, res.HTML, `<label for="email" class="text-sm">`)
	assert.Contains(t, res.HTML, `class="border"`)
	assert.False(t, res.Lossy)
}

func TestConvert_ClassNameNeverSurvives(t *testing.T) {
	fixtures := []string{
		`<div className="a">x</div>`,
		`<div className={styles.box}>x</div>`,
		`<div className={open ? "a" : "b"}>x</div>`,
		`<script>el.setAttribute("x", 1); var s = 'className=';</script>`,
		`<p>className= in text</p>`,
	}
	for _, in := range fixtures {
		res := sitecode.Convert(in, sitecode.DefaultOptions())
		assert.NotContains(t, res.HTML, "className=", "fixture %q", in)
	}
}

func TestConvert_InlineStyles(t *testing.T) {
	in := `<div style={{ backgroundColor: "#fff", marginTop: 12, zIndex: 10, opacity: 0.5, padding: 0, WebkitTransition: 'all 1s' }}>x</div>`
	res := sitecode.Convert(in, sitecode.Options{PreserveInlineStyles: true})

	assert.Contains(t, res.HTML, `style="background-color: #fff; margin-top: 12px; z-index: 10; opacity: 0.5; padding: 0; -webkit-transition: all 1s"`)
	assert.False(t, res.Lossy)
}

func TestConvert_InlineStyleWithDynamicValue(t *testing.T) {
	in := `<div style={{ color: theme.primary, fontSize: "18px" }}>x</div>`
	res := sitecode.Convert(in, sitecode.DefaultOptions())

	assert.Contains(t, res.HTML, `style="font-size: 18px"`)
	assert.True(t, res.Lossy)
	assert.Equal(t, 1, res.Dropped)
}

func TestConvert_RemovesComplexExpressions(t *testing.T) {
	in := `<ul>{items.map(item => <li key={item.id}>{item.name}</li>)}</ul>` +
		`<p>{isOpen ? "aberto" : "fechado"}</p>` +
		`<p>{user && user.name}</p>` +
		`<button onClick={() => setOpen(!open)} type="button">Menu</button>`
	res := sitecode.Convert(in, sitecode.Options{RemoveComplexExpressions: true})

	assert.Equal(t, `<ul></ul><p></p><p></p><button type="button">Menu</button>`, res.HTML)
	assert.True(t, res.Lossy)
	assert.Equal(t, 4, res.Dropped)
}

func TestConvert_KeepsLiterals(t *testing.T) {
	in := `<h1>{"Padaria"}{' '}{2024}</h1><img alt={"logo"} src={` + "`/logo.png`" + `} />{/* hero */}`
	res := sitecode.Convert(in, sitecode.Options{RemoveComplexExpressions: true})

	assert.Equal(t, `<h1>Padaria 2024</h1><img alt="logo" src="/logo.png" />`, res.HTML)
	assert.False(t, res.Lossy)
	assert.Zero(t, res.Dropped)
}

func TestConvert_BooleanAndSpreadAttributes(t *testing.T) {
	in := `<input disabled={true} hidden={false} {...props} />`
	res := sitecode.Convert(in, sitecode.Options{RemoveComplexExpressions: true})

	assert.Equal(t, `<input disabled />`, res.HTML)
	assert.Equal(t, 1, res.Dropped)
}

func TestConvert_LeavesScriptAndStyleBodies(t *testing.T) {
	in := "<style>body { margin: 0 }</style><script>tailwind.config = { theme: {} }</script><p>ok</p>"
	res := sitecode.Convert(in, sitecode.Options{RemoveComplexExpressions: true})

	assert.Equal(t, in, res.HTML)
	assert.Zero(t, res.Dropped)
}

func TestConvert_FragmentsAndComponents(t *testing.T) {
	in := `<><Header title="x" /><section>ok</section></>`
	res := sitecode.Convert(in, sitecode.Options{})

	assert.Equal(t, `<Header title="x" /><section>ok</section>`, res.HTML)
	assert.True(t, res.Lossy)
}

func TestConvert_OptionsOff(t *testing.T) {
	in := `<div className="a" style={{color: "red"}}>{x}</div>`
	res := sitecode.Convert(in, sitecode.Options{})
	assert.Equal(t, in, res.HTML)
}

func TestConvert_AddTailwind(t *testing.T) {
	doc := "<!DOCTYPE html>\n<html>\n<head>\n<title>x</title>\n</head>\n<body></body>\n</html>"
	res := sitecode.Convert(doc, sitecode.Options{AddTailwind: true})

	assert.Contains(t, res.HTML, "<head>\n<script src=\"https://cdn.tailwindcss.com\"></script>")
	assert.Contains(t, res.HTML, "fonts.googleapis.com")

	again := sitecode.Convert(res.HTML, sitecode.Options{AddTailwind: true})
	assert.Equal(t, res.HTML, again.HTML)
	assert.Equal(t, 1, strings.Count(again.HTML, "cdn.tailwindcss.com"))
}

func TestConvert_AddTailwindCreatesHead(t *testing.T) {
	res := sitecode.Convert(`<html lang="pt"><body><header>x</header></body></html>`, sitecode.Options{AddTailwind: true})
	assert.True(t, strings.HasPrefix(res.HTML, "<html lang=\"pt\">\n<head>\n<script"))

	res = sitecode.Convert(`<p>bare</p>`, sitecode.Options{AddTailwind: true})
	assert.True(t, strings.HasPrefix(res.HTML, "<head>\n"))
	assert.True(t, strings.HasSuffix(res.HTML, "</head>\n<p>bare</p>"))
}

func TestConvert_JSONPayload(t *testing.T) {
	res := sitecode.Convert(`{"sections": []}`, sitecode.DefaultOptions())
	assert.Equal(t, `{"sections": []}`, res.HTML)
	assert.True(t, res.Lossy)
}

func TestPreviewPipelineOnNormalizedJSX(t *testing.T) {
	raw := "```jsx\nexport default function Home() {\n  return (\n    <main className=\"min-h-screen\">\n      <h1 style={{fontSize: 32}}>{\"Padaria\"}</h1>\n    </main>\n  );\n}\n```"
	res := sitecode.Convert(sitecode.Normalize(raw), sitecode.DefaultOptions())

	assert.Contains(t, res.HTML, `<main class="min-h-screen">`)
	assert.Contains(t, res.HTML, `<h1 style="font-size: 32px">Padaria</h1>`)
	assert.Contains(t, res.HTML, "cdn.tailwindcss.com")
	assert.False(t, res.Lossy)
}
