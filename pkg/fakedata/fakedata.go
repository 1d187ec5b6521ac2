// Package fakedata produces plausible catalog values from a single seeded source.
package fakedata

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-faker/faker/v4"
)

type Generator struct {
	fake *gofakeit.Faker
	rand *rand.Rand
	now  func() time.Time
}

// New returns a generator whose names, companies, dates and choices come
// from its own source seeded with seed.
//
// Lorem words come from the faker package, whose source is process-wide:
// New reseeds it, so creating a second Generator restarts the word stream
// of the first. Use one Generator per run.
func New(seed int64) *Generator {
	faker.SetRandomSource(faker.NewSafeSource(rand.NewSource(seed)))
	fake := gofakeit.New(seed)
	return &Generator{
		fake: fake,
		rand: fake.Rand,
		now:  time.Now,
	}
}

// WithClock fixes "today" for date generation.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

func (g *Generator) Intn(n int) int {
	return g.rand.Intn(n)
}

// Between returns a uniform integer in [lo, hi].
func (g *Generator) Between(lo, hi int) int {
	return lo + g.rand.Intn(hi-lo+1)
}

// Chance reports true with probability p.
func (g *Generator) Chance(p float64) bool {
	return g.rand.Float64() < p
}

// Sample returns k distinct indices from [0, n) in random order.
// k is clamped to n.
func (g *Generator) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	return g.rand.Perm(n)[:k]
}

func (g *Generator) FirstName() string {
	return g.fake.FirstName()
}

func (g *Generator) LastName() string {
	return g.fake.LastName()
}

// Sentence returns words capitalized lorem words ending in a period.
func (g *Generator) Sentence(words int) string {
	parts := make([]string, 0, words)
	for len(parts) < words {
		w := strings.TrimSpace(faker.Word())
		if w == "" {
			continue
		}
		parts = append(parts, strings.ToLower(w))
	}
	parts[0] = strings.ToUpper(parts[0][:1]) + parts[0][1:]
	return strings.Join(parts, " ") + "."
}

// Text returns whole sentences of lorem text no longer than maxChars.
func (g *Generator) Text(maxChars int) string {
	var b strings.Builder
	for {
		s := g.Sentence(g.Between(4, 12))
		if b.Len() == 0 && len(s) > maxChars {
			return s[:maxChars]
		}
		if b.Len()+1+len(s) > maxChars {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
		if b.Len() > maxChars/2 && g.Chance(0.3) {
			break
		}
	}
	return b.String()
}

// ISBN13 returns a bare 13 digit ISBN with a valid check digit.
func (g *Generator) ISBN13() string {
	prefix := "978"
	if g.Chance(0.1) {
		prefix = "979"
	}
	digits := make([]byte, 0, 13)
	digits = append(digits, prefix...)
	for i := 0; i < 9; i++ {
		digits = append(digits, byte('0'+g.rand.Intn(10)))
	}
	return string(digits) + strconv.Itoa(ISBN13CheckDigit(string(digits)))
}

// ISBN13CheckDigit computes the check digit for the first 12 digits of an ISBN-13.
func ISBN13CheckDigit(first12 string) int {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(first12[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

// ValidISBN13 reports whether isbn is 13 digits with a correct check digit.
func ValidISBN13(isbn string) bool {
	if len(isbn) != 13 {
		return false
	}
	for i := 0; i < 13; i++ {
		if isbn[i] < '0' || isbn[i] > '9' {
			return false
		}
	}
	return int(isbn[12]-'0') == ISBN13CheckDigit(isbn[:12])
}

func (g *Generator) Company() string {
	return g.fake.Company()
}

// DateOfBirth returns a date for someone aged between minAge and maxAge today.
func (g *Generator) DateOfBirth(minAge, maxAge int) time.Time {
	today := g.today()
	return g.dateBetween(today.AddDate(-maxAge-1, 0, 1), today.AddDate(-minAge, 0, 0))
}

// FutureDate returns a date from tomorrow up to days from today.
func (g *Generator) FutureDate(days int) time.Time {
	today := g.today()
	return g.dateBetween(today.AddDate(0, 0, 1), today.AddDate(0, 0, days))
}

// dateBetween returns a midnight UTC date in [from, to], both days inclusive.
func (g *Generator) dateBetween(from, to time.Time) time.Time {
	if !to.After(from) {
		return from
	}
	return truncateDay(g.fake.DateRange(from, to.AddDate(0, 0, 1).Add(-time.Nanosecond)))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (g *Generator) today() time.Time {
	return truncateDay(g.now())
}
