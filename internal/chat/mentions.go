package chat

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// A mention token is "@" followed by 1-30 non-space characters. Display
// names may contain spaces, so after a match we keep extending it with
// further space-joined segments while a member name still matches.
var mentionTokenRe = regexp.MustCompile(`@([^\s@]{1,30}(?:[ ][^\s@]{1,30})*)`)

// Reserved phrases that address every active member.
var allPhrases = []string{"all", "everyone"}

// ExtractMentions scans message text for @tokens and resolves each to a
// member id by longest-prefix match against active member display names,
// or to MentionAll for the reserved phrases. Unresolvable tokens are
// dropped: free-text mentions render as styled text but carry no targets.
func ExtractMentions(content string, members []Member) []string {
	matches := mentionTokenRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	mentions := make([]string, 0, len(matches))
	add := func(target string) {
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		mentions = append(mentions, target)
	}

	for _, match := range matches {
		token := match[1]
		if isAllPhrase(token) {
			add(MentionAll)
			continue
		}
		if id, ok := matchMemberPrefix(token, members); ok {
			add(id)
		}
	}

	if len(mentions) == 0 {
		return nil
	}
	return mentions
}

func isAllPhrase(token string) bool {
	first := token
	if i := strings.IndexByte(token, ' '); i >= 0 {
		first = token[:i]
	}
	for _, phrase := range allPhrases {
		if strings.EqualFold(first, phrase) {
			return true
		}
	}
	return false
}

// matchMemberPrefix picks the active member whose display name is the
// longest prefix of the token (the token may run past the name into the
// rest of the sentence).
func matchMemberPrefix(token string, members []Member) (string, bool) {
	lowered := strings.ToLower(token)
	best := ""
	bestLen := 0
	for _, m := range members {
		if !m.IsActive || m.DisplayName == "" {
			continue
		}
		name := strings.ToLower(m.DisplayName)
		if !strings.HasPrefix(lowered, name) {
			continue
		}
		// The name must end at a word boundary inside the token.
		if len(lowered) > len(name) && lowered[len(name)] != ' ' {
			continue
		}
		if len(name) > bestLen {
			bestLen = len(name)
			best = m.UserID.String()
		}
	}
	return best, bestLen > 0
}

// ResolveTargets expands a stored mention list into concrete recipient
// ids. MentionAll fans out to every active member except the sender;
// otherwise the literal list minus the sender is returned.
func ResolveTargets(mentions []string, members []Member, senderID uuid.UUID) []uuid.UUID {
	if len(mentions) == 0 {
		return nil
	}

	for _, m := range mentions {
		if m == MentionAll {
			targets := make([]uuid.UUID, 0, len(members))
			for _, member := range members {
				if member.IsActive && member.UserID != senderID {
					targets = append(targets, member.UserID)
				}
			}
			return targets
		}
	}

	targets := make([]uuid.UUID, 0, len(mentions))
	seen := map[uuid.UUID]struct{}{}
	for _, m := range mentions {
		id, err := uuid.Parse(m)
		if err != nil || id == senderID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}
	return targets
}
