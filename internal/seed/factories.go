package seed

import (
	"fmt"
	"strings"
	"unicode"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

const maxUsernameBase = 14

// Factory builds service inputs filled with fake data. A fixed seed gives a
// repeatable data set.
type Factory struct {
	faker    *gofakeit.Faker
	password string
}

// NewFactory creates a Factory. seed 0 draws a random seed.
func NewFactory(seed int64, password string) *Factory {
	return &Factory{faker: gofakeit.New(seed), password: password}
}

// User builds a registration for the n-th seeded user. The index keeps
// usernames unique across runs of the same size.
func (f *Factory) User(n int) service.RegisterInput {
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := fmt.Sprintf("%s_%d", usernameBase(first+last), n)
	return service.RegisterInput{
		Email:     username + "@example.com",
		Username:  username,
		Password:  f.password,
		FirstName: first,
		LastName:  last,
	}
}

// usernameBase keeps the ASCII letters of s, lower-cased and shortened.
func usernameBase(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(r)
		}
		if b.Len() == maxUsernameBase {
			break
		}
	}
	if b.Len() < 3 {
		return "writer"
	}
	return b.String()
}

// Post builds a post by authorID. Roughly one in five posts stays a draft.
func (f *Factory) Post(authorID uint, tagIDs []uint) service.CreatePostInput {
	status := models.PostStatusPublished
	if f.faker.Number(1, 100) <= 20 {
		status = models.PostStatusDraft
	}

	var content strings.Builder
	for i, n := 0, f.faker.Number(2, 6); i < n; i++ {
		content.WriteString("<p>")
		content.WriteString(f.faker.Paragraph(1, f.faker.Number(3, 7), 12, " "))
		content.WriteString("</p>\n")
	}

	in := service.CreatePostInput{
		UserID:  authorID,
		Title:   strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 9)), "."),
		Content: content.String(),
		Status:  status,
		TagIDs:  tagIDs,
	}
	if f.faker.Bool() {
		in.CoverImage = fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", f.faker.UUID())
	}
	return in
}

// Comment returns comment text of one to three sentences.
func (f *Factory) Comment() string {
	return f.faker.Paragraph(1, f.faker.Number(1, 3), 14, " ")
}

// PickTags returns up to max distinct tag IDs from ids.
func (f *Factory) PickTags(ids []uint, max int) []uint {
	if len(ids) == 0 || max <= 0 {
		return nil
	}
	n := f.faker.Number(0, max)
	if n > len(ids) {
		n = len(ids)
	}
	picked := make([]uint, 0, n)
	for _, i := range f.Perm(len(ids))[:n] {
		picked = append(picked, ids[i])
	}
	return picked
}

// Perm returns a random permutation of [0, n).
func (f *Factory) Perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := f.faker.Number(0, i)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Intn returns a value in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

// Chance reports true with the given percentage.
func (f *Factory) Chance(percent int) bool {
	return f.faker.Number(1, 100) <= percent
}
