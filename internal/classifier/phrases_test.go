package classifier

import (
	"testing"

	"github.com/mikey/app-tracker/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestPhraseClassifier(t *testing.T) {
	p := NewPhraseClassifier()

	t.Run("confirmation email falls back to the sender domain for the company", func(t *testing.T) {
		email := &core.NormalizedEmail{
			Subject:     "Thank you for applying to Acme Corp — Software Engineer",
			From:        "Acme Careers <careers@acme.com>",
			SenderEmail: "careers@acme.com",
			Body:        "We have received your application.",
		}

		result := p.Classify(email)
		assert.Equal(t, "Acme", result.Company)
		assert.Contains(t, result.Role, "Software Engineer")
		assert.Equal(t, core.StatusApplied, result.Status)
		assert.Equal(t, 0.8, result.Confidence)
		assert.Equal(t, core.SourcePhrases, result.Source)
		assert.Equal(t, "Matched pattern for Applied", result.Reasoning)
	})

	t.Run("interview invitation", func(t *testing.T) {
		email := &core.NormalizedEmail{
			Subject:     "Interview invitation",
			SenderEmail: "talent@acme.com",
			Body:        "We would like to schedule a call for the Software Engineer role.",
		}

		result := p.Classify(email)
		assert.Equal(t, "Acme", result.Company)
		assert.Equal(t, "Software Engineer", result.Role)
		assert.Equal(t, core.StatusInterview, result.Status)
		assert.Equal(t, 0.8, result.Confidence)
	})

	t.Run("rejection wins over every other status", func(t *testing.T) {
		email := &core.NormalizedEmail{
			Subject:     "Update on your application",
			SenderEmail: "jobs@initech.io",
			Body:        "Unfortunately we have decided to move forward with another candidate for the Data Scientist position. We enjoyed the interview.",
		}

		result := p.Classify(email)
		assert.Equal(t, core.StatusRejected, result.Status)
		assert.Equal(t, "Initech", result.Company)
		assert.Equal(t, "Data Scientist", result.Role)
	})

	t.Run("email without company or role gets zero confidence", func(t *testing.T) {
		email := &core.NormalizedEmail{
			Subject:     "Hello",
			SenderEmail: "someone@gmail.com",
			Body:        "just checking in",
		}

		result := p.Classify(email)
		assert.Equal(t, UnknownCompany, result.Company)
		assert.Equal(t, UnknownPosition, result.Role)
		assert.Equal(t, core.StatusApplied, result.Status)
		assert.Equal(t, 0.0, result.Confidence)
		assert.Equal(t, "Failed to extract Company or Role", result.Reasoning)
	})

	t.Run("default status with a missing role is not trusted", func(t *testing.T) {
		email := &core.NormalizedEmail{
			Subject:     "Hello",
			SenderEmail: "hr@globex.com",
			Body:        "just checking in",
		}

		result := p.Classify(email)
		assert.Equal(t, "Globex", result.Company)
		assert.Equal(t, UnknownPosition, result.Role)
		assert.Equal(t, 0.0, result.Confidence)
		assert.Equal(t, "Low confidence and missing metadata", result.Reasoning)
	})

	t.Run("same email yields the same result", func(t *testing.T) {
		email := &core.NormalizedEmail{
			Subject:     "Your application for the Backend Developer position",
			SenderEmail: "no-reply@hooli.com",
			Body:        "Thank you for applying. Complete the HackerRank assessment within 7 days.",
		}

		first := p.Classify(email)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, p.Classify(email))
		}
		assert.Equal(t, core.StatusAssessment, first.Status)
	})
}

func TestExtractCompany(t *testing.T) {
	p := NewPhraseClassifier()

	tests := []struct {
		name  string
		email core.NormalizedEmail
		want  string
	}{
		{
			name:  "a blacklisted first match moves on to the next pattern",
			email: core.NormalizedEmail{Body: "Greetings from Our office. Thanks, Globex recruiting. We work with Initech.", SenderEmail: "x@gmail.com"},
			want:  "Globex",
		},
		{
			name:  "later matches of the same pattern are not considered",
			email: core.NormalizedEmail{Body: "Greetings from Our office. Thanks from Globex Industries today", SenderEmail: "jobs@initech.com"},
			want:  "Initech",
		},
		{
			name:  "subject pattern is case-insensitive",
			email: core.NormalizedEmail{Subject: "Your application to Umbrella", SenderEmail: "x@gmail.com"},
			want:  "Umbrella",
		},
		{
			name:  "ATS domain is ignored",
			email: core.NormalizedEmail{Subject: "hello", SenderEmail: "noreply@myworkday.com"},
			want:  "",
		},
		{
			name:  "From is used when the sender address is empty",
			email: core.NormalizedEmail{Subject: "hello", From: "Stark <jobs@stark.com>"},
			want:  "Stark",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ExtractCompany(&tt.email))
		})
	}
}

func TestExtractRole(t *testing.T) {
	p := NewPhraseClassifier()

	tests := []struct {
		name    string
		subject string
		body    string
		want    string
	}{
		{
			name: "position of",
			body: "Thanks for applying to the position of Machine Learning Engineer at Hooli.",
			want: "Machine Learning Engineer",
		},
		{
			name: "lower-case role is title-cased",
			body: "We received your application for the data analyst role.",
			want: "Data Analyst",
		},
		{
			name: "too short a capture falls through to the title scan",
			body: "position of Dev at Hooli. We need an sre.",
			want: "Sre",
		},
		{
			name:    "nothing recognisable",
			subject: "Hello",
			body:    "How are you?",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ExtractRole(tt.subject, tt.body))
		})
	}
}
