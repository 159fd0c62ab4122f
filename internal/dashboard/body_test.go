package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderBody(t *testing.T) {
	report := Report{
		Header: "This issue lists pending dependency updates.",
		Sections: []Section{
			{
				Title: "Open",
				Note:  "These updates have open merge requests.",
				Items: []Item{
					{Label: "Update module golang.org/x/net to v0.39.0", Detail: "!12"},
					{Label: "Update zap to v1.27.1", Checked: true},
				},
			},
			{Title: "Ignored"},
			{
				Title: "Pending Approval",
				Items: []Item{{Label: "Update go-git to v6"}},
			},
		},
		Footer: "Check a box to trigger a rebase.",
	}

	want := `This issue lists pending dependency updates.

## Open

These updates have open merge requests.

 - [ ] Update module golang.org/x/net to v0.39.0 (!12)
 - [x] Update zap to v1.27.1

## Pending Approval

 - [ ] Update go-git to v6

---

Check a box to trigger a rebase.
`
	assert.Equal(t, want, RenderBody(report))
}

func TestRenderBody_Empty(t *testing.T) {
	assert.Equal(t, "\n", RenderBody(Report{}))
	assert.Equal(t, "Nothing to do.\n", RenderBody(Report{Header: "Nothing to do.", Sections: []Section{{Title: "Open"}}}))
}

func TestRenderBody_Stable(t *testing.T) {
	report := Report{Sections: []Section{{Title: "Open", Items: []Item{{Label: "a"}}}}}
	assert.Equal(t, RenderBody(report), RenderBody(report))
}
