package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func holders(s Submission) (presenters, corresponding int) {
	for _, a := range s.Authors {
		if a.IsPresenter {
			presenters++
		}
		if a.IsCorresponding {
			corresponding++
		}
	}
	return presenters, corresponding
}

func TestRemoveSolePresenterReassignsToFirst(t *testing.T) {
	t.Parallel()

	s := Submission{Authors: []Author{
		{Name: "Ada", IsCorresponding: true},
		{Name: "Grace", IsPresenter: true},
		{Name: "Linus"},
	}}

	require.NoError(t, s.RemoveAuthor(1))
	require.Len(t, s.Authors, 2)
	assert.True(t, s.Authors[0].IsPresenter)
	assert.True(t, s.Authors[0].IsCorresponding)
	assert.False(t, s.Authors[1].IsPresenter)
}

func TestRemoveFirstAuthorHoldingBothFlags(t *testing.T) {
	t.Parallel()

	s := Submission{Authors: []Author{
		{Name: "Ada", IsPresenter: true, IsCorresponding: true},
		{Name: "Grace"},
	}}

	require.NoError(t, s.RemoveAuthor(0))
	assert.Equal(t, "Grace", s.Authors[0].Name)
	assert.True(t, s.Authors[0].IsPresenter)
	assert.True(t, s.Authors[0].IsCorresponding)
}

func TestRemoveAuthorErrors(t *testing.T) {
	t.Parallel()

	s := Submission{Authors: []Author{{Name: "Ada", IsPresenter: true, IsCorresponding: true}}}
	assert.ErrorIs(t, s.RemoveAuthor(0), ErrLastAuthor)
	assert.ErrorIs(t, s.RemoveAuthor(3), ErrAuthorIndex)
	assert.ErrorIs(t, s.RemoveAuthor(-1), ErrAuthorIndex)
	assert.Len(t, s.Authors, 1)
}

func TestAuthorFlagInvariantUnderEdits(t *testing.T) {
	t.Parallel()

	var s Submission
	s.AddAuthor(Author{Name: "a0"})
	p, c := holders(s)
	require.Equal(t, 1, p)
	require.Equal(t, 1, c)

	for i := 1; i < 6; i++ {
		s.AddAuthor(Author{Name: "a", IsPresenter: i%2 == 0})
	}
	ops := []int{2, 0, 1, 0, 1}
	for _, idx := range ops {
		if idx >= len(s.Authors) {
			idx = len(s.Authors) - 1
		}
		require.NoError(t, s.RemoveAuthor(idx))
		p, c := holders(s)
		assert.GreaterOrEqual(t, p, 1, "presenter holders after removing %d", idx)
		assert.GreaterOrEqual(t, c, 1, "corresponding holders after removing %d", idx)
	}
	assert.Len(t, s.Authors, 1)
}

func TestCorrespondingAuthor(t *testing.T) {
	t.Parallel()

	s := Submission{Authors: []Author{{Name: "Ada"}, {Name: "Grace", IsCorresponding: true}}}
	a, ok := s.CorrespondingAuthor()
	require.True(t, ok)
	assert.Equal(t, "Grace", a.Name)

	_, ok = Submission{}.CorrespondingAuthor()
	assert.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]Status{
		"under_review":      StatusUnderReview,
		"UnderReview":       StatusUnderReview,
		"Accepted":          StatusAccepted,
		"Revision Required": StatusRevisionRequired,
		"revision-required": StatusRevisionRequired,
		"REJECTED":          StatusRejected,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStatus("withdrawn")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetAuthorsKeepsExistingHolders(t *testing.T) {
	var s Submission
	s.SetAuthors([]Author{{Name: "A"}, {Name: "B", IsCorresponding: true}})

	assert.True(t, s.Authors[0].IsPresenter)
	assert.False(t, s.Authors[0].IsCorresponding)
	assert.True(t, s.Authors[1].IsCorresponding)

	s.SetAuthors(nil)
	assert.Empty(t, s.Authors)
}
