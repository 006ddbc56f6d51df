package graph

import (
	"context"
	neturl "net/url"
	"strconv"
)

// PeopleService resolves directory contacts ranked by the caller's
// communication relevance.
type PeopleService struct{ client *Client }

func NewPeopleService(c *Client) *PeopleService { return &PeopleService{client: c} }

type rawPerson struct {
	DisplayName          string `json:"displayName"`
	JobTitle             string `json:"jobTitle,omitempty"`
	CompanyName          string `json:"companyName,omitempty"`
	ScoredEmailAddresses []struct {
		Address string `json:"address"`
	} `json:"scoredEmailAddresses,omitempty"`
}

func (s *PeopleService) Search(ctx context.Context, in *SearchPeopleInput) (*SearchPeopleOutput, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	top := in.Top
	if top <= 0 {
		top = 10
	}
	q := neturl.Values{}
	q.Set("$search", strconv.Quote(in.Query))
	q.Set("$top", strconv.Itoa(top))
	var payload struct {
		Value []rawPerson `json:"value"`
	}
	if err := s.client.Get(ctx, "/me/people", q, &payload); err != nil {
		return nil, err
	}
	out := &SearchPeopleOutput{}
	for _, p := range payload.Value {
		person := Person{Name: p.DisplayName, JobTitle: p.JobTitle, Company: p.CompanyName}
		for _, scored := range p.ScoredEmailAddresses {
			if scored.Address != "" {
				person.Emails = append(person.Emails, scored.Address)
			}
		}
		out.People = append(out.People, person)
	}
	return out, nil
}
