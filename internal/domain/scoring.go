package domain

import (
	"strings"
	"time"
)

// ScoreThreshold is the minimum total score an opportunity needs to be persisted.
const ScoreThreshold = 30

// Scoring breaks an opportunity's score into its components. Total is
// clamped to [0,100].
type Scoring struct {
	Recency int
	Impact  int
	Total   int
}

// ScoreOpportunity rates a candidate post for engagement value. Recency
// decays with the post's age at scoring time; impact combines the author's
// reach with how well the text matches the profile's keywords and interests.
func ScoreOpportunity(postedAt time.Time, text string, author *Author, profile *Profile, now time.Time) Scoring {
	s := Scoring{
		Recency: recencyScore(now.Sub(postedAt)),
		Impact:  impactScore(text, author, profile),
	}
	s.Total = s.Recency + s.Impact
	if s.Total > 100 {
		s.Total = 100
	}
	if s.Total < 0 {
		s.Total = 0
	}
	return s
}

func recencyScore(age time.Duration) int {
	switch {
	case age < 0:
		// Clock skew between platform and host; treat as brand new.
		return 40
	case age <= 15*time.Minute:
		return 40
	case age <= time.Hour:
		return 30
	case age <= 2*time.Hour:
		return 20
	case age <= 4*time.Hour:
		return 10
	default:
		return 0
	}
}

func impactScore(text string, author *Author, profile *Profile) int {
	score := reachScore(author)

	lower := strings.ToLower(text)
	if profile != nil {
		matched := 0
		for _, kw := range profile.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				matched++
			}
		}
		if matched > 3 {
			matched = 3
		}
		score += matched * 8

		interests := 0
		for _, in := range profile.Interests {
			if in != "" && strings.Contains(lower, strings.ToLower(in)) {
				interests++
			}
		}
		if interests > 3 {
			interests = 3
		}
		score += interests * 4
	}

	if score > 60 {
		score = 60
	}
	return score
}

func reachScore(author *Author) int {
	if author == nil {
		return 0
	}
	switch {
	case author.FollowerCount >= 100_000:
		return 24
	case author.FollowerCount >= 10_000:
		return 18
	case author.FollowerCount >= 1_000:
		return 12
	case author.FollowerCount >= 100:
		return 8
	default:
		return 4
	}
}
