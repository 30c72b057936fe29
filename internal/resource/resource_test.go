package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layoutXML = `<?xml version="1.0" encoding="utf-8"?>
<LinearLayout xmlns:android="http://schemas.android.com/apk/res/android"
    android:layout_width="match_parent"
    android:background = '#fff'>
    <TextView android:textColor="@android:color/black" />
    <!-- <View android:background="#000" /> -->
</LinearLayout>
`

const colorsXML = `<resources>
    <color name="teal_700">#FF018786</color>
    <color name="empty"></color>
    <item name="accent" type="color">  #ABC  </item>
    <color name="amp">&#35;FFFFFF</color>
</resources>
`

func TestParse_AttributeSpans(t *testing.T) {
	t.Parallel()

	doc, err := Parse("app/src/main/res/layout/main.xml", []byte(layoutXML))
	require.NoError(t, err)
	assert.Equal(t, "layout", doc.Folder)

	root := doc.Root
	assert.Equal(t, "LinearLayout", root.Name)
	require.Len(t, root.Attrs, 3)

	bg := root.Attrs[2]
	assert.Equal(t, "android:background", bg.Name)
	assert.Equal(t, "#fff", bg.Value)
	assert.Same(t, root, bg.Owner)
	assert.Equal(t, 4, bg.ValueLoc.StartLine)
	assert.Equal(t, 27, bg.ValueLoc.StartCol)
	assert.Equal(t, "#fff", string(doc.Src[bg.ValueLoc.StartByte:bg.ValueLoc.EndByte]))

	require.Len(t, root.Children, 1, "comments are not elements")
	tv := root.Children[0]
	assert.Same(t, root, tv.Parent)
	v, ok := tv.Attr("android:textColor")
	require.True(t, ok)
	assert.Equal(t, "@android:color/black", v)
	assert.Equal(t, 5, tv.Loc.StartLine)
	assert.Equal(t, 5, tv.Attrs[0].ValueLoc.StartLine)
	assert.Equal(t, 34, tv.Attrs[0].ValueLoc.StartCol)
	assert.True(t, tv.IsLeaf())
	assert.Empty(t, tv.Text)
}

func TestParse_TextSpans(t *testing.T) {
	t.Parallel()

	doc, err := Parse("res/values/colors.xml", []byte(colorsXML))
	require.NoError(t, err)
	assert.Equal(t, FolderValues, doc.Folder)
	require.Len(t, doc.Root.Children, 4)

	teal := doc.Root.Children[0]
	assert.Equal(t, "#FF018786", teal.Text)
	assert.Equal(t, 2, teal.TextLoc.StartLine)
	assert.Equal(t, 28, teal.TextLoc.StartCol)
	assert.Equal(t, "#FF018786", string(doc.Src[teal.TextLoc.StartByte:teal.TextLoc.EndByte]))

	empty := doc.Root.Children[1]
	assert.Empty(t, empty.Text)
	assert.Zero(t, empty.TextLoc)

	item := doc.Root.Children[2]
	assert.Equal(t, "#ABC", item.Text)
	assert.Equal(t, "#ABC", string(doc.Src[item.TextLoc.StartByte:item.TextLoc.EndByte]))

	amp := doc.Root.Children[3]
	assert.Equal(t, "#FFFFFF", amp.Text)
	assert.Equal(t, "&#35;FFFFFF", string(doc.Src[amp.TextLoc.StartByte:amp.TextLoc.EndByte]))

	assert.Empty(t, doc.Root.Text, "whitespace between children is not text")
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"unclosed", "<resources><color>"},
		{"mismatched", "<a></b>"},
		{"two roots", "<a/><b/>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("res/values/x.xml", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "resource: parsing res/values/x.xml")
		})
	}
}

type recorder struct {
	events []string
}

func (r *recorder) VisitElement(el *Element) { r.events = append(r.events, "<"+el.Name) }
func (r *recorder) VisitAttribute(a *Attr)   { r.events = append(r.events, "@"+a.Name) }

func TestWalk_Order(t *testing.T) {
	t.Parallel()

	doc, err := Parse("res/layout/a.xml", []byte(`<a x="1"><b y="2" z="3"/><c/></a>`))
	require.NoError(t, err)

	var r recorder
	Walk(doc, &r)
	assert.Equal(t, []string{"@x", "<a", "@y", "@z", "<b", "<c"}, r.events)
}

func TestFolderTypeAndResourcePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "values", FolderType("app/src/main/res/values/colors.xml"))
	assert.Equal(t, "values", FolderType("app/src/main/res/values-night-v23/colors.xml"))
	assert.Equal(t, "drawable", FolderType("res/drawable-hdpi/bg.xml"))

	assert.True(t, IsResourcePath("app/src/main/res/layout/main.xml"))
	assert.True(t, IsResourcePath("res/values/colors.XML"))
	assert.False(t, IsResourcePath("app/src/main/AndroidManifest.xml"))
	assert.False(t, IsResourcePath("app/src/main/res/layout/main.kt"))
}

func TestLineIndex(t *testing.T) {
	t.Parallel()

	idx := newLineIndex([]byte("ab\ncd\n\nx"))
	tests := []struct{ off, line, col int }{
		{0, 1, 1}, {2, 1, 3}, {3, 2, 1}, {6, 3, 1}, {7, 4, 1}, {8, 4, 2},
	}
	for _, tt := range tests {
		line, col := idx.position(tt.off)
		assert.Equal(t, tt.line, line, "offset %d", tt.off)
		assert.Equal(t, tt.col, col, "offset %d", tt.off)
	}
}
