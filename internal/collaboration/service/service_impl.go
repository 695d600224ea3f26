package service

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/collaboration/domain"
	"github.com/smallbiznis/talentlink/internal/config"
	portfoliodomain "github.com/smallbiznis/talentlink/internal/portfolio/domain"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	skillWeight = 3
	bioWeight   = 1

	bioCandidateLimit = 200
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "app": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "our": {}, "the": {}, "this": {}, "to": {}, "we": {}, "with": {},
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Repo       domain.Repository
	Users      userdomain.Repository
	Portfolios portfoliodomain.Repository
	Policy     *config.PolicyHolder
}

type Service struct {
	log        *zap.Logger
	repo       domain.Repository
	users      userdomain.Repository
	portfolios portfoliodomain.Repository
	policy     *config.PolicyHolder
}

func New(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("collaboration.service"),
		repo:       p.Repo,
		users:      p.Users,
		portfolios: p.Portfolios,
		policy:     p.Policy,
	}
}

// HaveCollaborated reports whether a and b share a team or one is an accepted
// contributor on the other's portfolio.
func (s *Service) HaveCollaborated(ctx context.Context, a, b snowflake.ID) (bool, error) {
	if a == b {
		return false, nil
	}
	shared, err := s.repo.SharesTeam(ctx, a, b)
	if err != nil || shared {
		return shared, err
	}
	return s.repo.SharesPortfolio(ctx, a, b)
}

func (s *Service) ListCollaborators(ctx context.Context, userID snowflake.ID) ([]domain.Collaborator, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	teamPeers, err := s.repo.TeamPeers(ctx, userID)
	if err != nil {
		return nil, err
	}
	portfolioPeers, err := s.repo.PortfolioPeers(ctx, userID)
	if err != nil {
		return nil, err
	}

	via := make(map[snowflake.ID][]string)
	order := make([]snowflake.ID, 0, len(teamPeers)+len(portfolioPeers))
	mark := func(ids []snowflake.ID, how string) {
		for _, id := range ids {
			if id == userID {
				continue
			}
			current, seen := via[id]
			if !seen {
				order = append(order, id)
			}
			if len(current) == 0 || current[len(current)-1] != how {
				via[id] = append(current, how)
			}
		}
	}
	mark(teamPeers, domain.ViaTeam)
	mark(portfolioPeers, domain.ViaPortfolio)

	users, err := s.users.FindByIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Collaborator, 0, len(order))
	for _, id := range order {
		user, ok := users[id]
		if !ok {
			continue
		}
		out = append(out, domain.Collaborator{User: user.Summary(), Via: via[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].User.Username < out[j].User.Username
	})
	return out, nil
}

// SuggestContributors ranks users whose skills and bio match words from the
// portfolio's title, description and tags.
func (s *Service) SuggestContributors(ctx context.Context, actorID, portfolioID snowflake.ID, limit int) ([]domain.Suggestion, error) {
	portfolio, err := s.portfolios.FindByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if portfolio.UserID != actorID {
		return nil, portfoliodomain.ErrNotOwner
	}

	ceiling := s.policy.Get().SuggestedContributorsMax
	if limit <= 0 || limit > ceiling {
		limit = ceiling
	}

	keywords := keywordSet(portfolio.Title, portfolio.Description, strings.Join(portfolio.Tags, " "))
	if len(keywords) == 0 {
		return []domain.Suggestion{}, nil
	}

	catalog, err := s.repo.SkillCatalog(ctx)
	if err != nil {
		return nil, err
	}
	var matchedSkillIDs []snowflake.ID
	for _, skill := range catalog {
		if skillMatches(skill.Name, keywords) {
			matchedSkillIDs = append(matchedSkillIDs, skill.ID)
		}
	}

	bySkill, err := s.repo.UsersWithSkills(ctx, matchedSkillIDs)
	if err != nil {
		return nil, err
	}
	byBio, err := s.repo.UsersWithBioTerms(ctx, sortedKeys(keywords), bioCandidateLimit)
	if err != nil {
		return nil, err
	}

	excluded := map[snowflake.ID]struct{}{portfolio.UserID: {}}
	existing, err := s.repo.ContributorIDs(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	for _, id := range existing {
		excluded[id] = struct{}{}
	}

	candidates := make([]snowflake.ID, 0, len(bySkill)+len(byBio))
	seen := make(map[snowflake.ID]struct{})
	for _, id := range append(bySkill, byBio...) {
		if _, skip := excluded[id]; skip {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 {
		return []domain.Suggestion{}, nil
	}

	users, err := s.users.FindByIDs(ctx, candidates)
	if err != nil {
		return nil, err
	}
	skills, err := s.users.ListSkills(ctx, candidates)
	if err != nil {
		return nil, err
	}
	skillsByUser := make(map[snowflake.ID][]string)
	for _, view := range skills {
		skillsByUser[view.UserID] = append(skillsByUser[view.UserID], view.Name)
	}

	out := make([]domain.Suggestion, 0, len(candidates))
	for _, id := range candidates {
		user, ok := users[id]
		if !ok {
			continue
		}
		score, matched := scoreCandidate(user, skillsByUser[id], keywords)
		if score == 0 {
			continue
		}
		out = append(out, domain.Suggestion{User: user.Summary(), Score: score, MatchedSkills: matched})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].User.Username < out[j].User.Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func scoreCandidate(user userdomain.User, skills []string, keywords map[string]struct{}) (int, []string) {
	score := 0
	matched := []string{}
	for _, skill := range skills {
		if skillMatches(skill, keywords) {
			score += skillWeight
			matched = append(matched, skill)
		}
	}
	bio := keywordSet(user.Bio)
	for word := range bio {
		if _, ok := keywords[word]; ok {
			score += bioWeight
		}
	}
	return score, matched
}

// skillMatches is true when the whole skill name or any word of it is a keyword.
func skillMatches(name string, keywords map[string]struct{}) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := keywords[name]; ok {
		return true
	}
	for _, word := range tokenize(name) {
		if _, ok := keywords[word]; ok {
			return true
		}
	}
	return false
}

func keywordSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, text := range texts {
		for _, word := range tokenize(text) {
			if _, stop := stopwords[word]; stop {
				continue
			}
			set[word] = struct{}{}
		}
	}
	return set
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
