package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompanyName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"legal suffix stripped", "Acme Ltd.", "acme"},
		{"bare name unchanged", "ACME", "acme"},
		{"leading the stripped", "The Widget Corp", "widget"},
		{"inc with comma", "Globex, Inc", "globex"},
		{"gmbh", "Mueller GmbH", "mueller"},
		{"punctuation removed", "O'Brien & Sons LLC", "obrien sons"},
		{"hyphen kept", "North-West Plc", "north-west"},
		{"whitespace collapsed", "  Acme    Widgets  ", "acme widgets"},
		{"suffix only trailing", "Sabre Holdings", "sabre holdings"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CompanyName(tc.in))
		})
	}
}

func TestCompanyNameEquivalence(t *testing.T) {
	// The property duplicate detection relies on: suffixed and bare forms
	// of the same company collapse to one canonical string.
	assert.Equal(t, CompanyName("Acme Ltd."), CompanyName("ACME"))
	assert.Equal(t, CompanyName("Widget Corp"), CompanyName("The Widget"))
}

func TestPersonName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"honorific", "Dr. Jane Doe", "jane doe"},
		{"suffix", "John Smith Jr.", "john smith"},
		{"plain", "Bob Smith", "bob smith"},
		{"mixed case", "ALICE COOPER", "alice cooper"},
		{"punctuation", "Anne-Marie O'Neal", "annemarie oneal"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PersonName(tc.in))
		})
	}
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "bob@acme.com", Email("  Bob@Acme.COM "))
	assert.Equal(t, "", Email(""))
}

func TestPhone(t *testing.T) {
	assert.Equal(t, "15551234567", Phone("+1 (555) 123-4567"))
	assert.Equal(t, "447911123456", Phone("+44 7911 123456"))
	assert.Equal(t, "", Phone("no digits"))
}

func TestDomainFromEmail(t *testing.T) {
	assert.Equal(t, "example.com", DomainFromEmail("a@Example.COM"))
	assert.Equal(t, "", DomainFromEmail("not-an-email"))
}

func TestLinkedInPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.linkedin.com/in/jane-doe/", "jane-doe"},
		{"http://linkedin.com/in/jane-doe", "jane-doe"},
		{"linkedin.com/in/jane-doe", "jane-doe"},
		{"jane-doe", "jane-doe"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LinkedInPath(tc.in), "input %q", tc.in)
	}
}
