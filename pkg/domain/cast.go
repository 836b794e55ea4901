package domain

import "strings"

// fuzzyThreshold 未満のスコアしか得られない名前は既知キャストに対応付けません。
const fuzzyThreshold = 2

// MatchCastNames は LLM が書いた角色名を既知のキャスト名に寄せます。
// 完全一致を優先し、次に共通文字数（包含関係なら +2）によるあいまい一致を行います。
// 結果は重複を除いた順序付きリストで、1件も対応付かない場合は元の名前をそのまま返します。
func MatchCastNames(raw []string, known []string) []string {
	knownSet := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownSet[k] = struct{}{}
	}

	var matched []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		matched = append(matched, name)
	}

	var originals []string
	for _, n := range raw {
		t := strings.TrimSpace(n)
		if t == "" {
			continue
		}
		originals = append(originals, t)

		if _, ok := knownSet[t]; ok {
			add(t)
			continue
		}
		if best, score := bestMatch(t, known); score >= fuzzyThreshold {
			add(best)
		}
	}

	if len(matched) == 0 {
		return originals
	}
	return matched
}

// bestMatch は name と最も重なりの大きい既知名とそのスコアを返します。
// 同点の場合は先に登録された名前が優先されます。
func bestMatch(name string, known []string) (string, int) {
	runes := make(map[rune]struct{})
	for _, r := range name {
		runes[r] = struct{}{}
	}

	best, bestScore := "", 0
	for _, k := range known {
		kr := make(map[rune]struct{})
		for _, r := range k {
			kr[r] = struct{}{}
		}
		score := 0
		for r := range runes {
			if _, ok := kr[r]; ok {
				score++
			}
		}
		if strings.Contains(name, k) || strings.Contains(k, name) {
			score += 2
		}
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	return best, bestScore
}

// ReconcileFrameCast は各フレームの Character を既知キャストに寄せて書き換えます。
func ReconcileFrameCast(frames []StoryboardFrame, cast Cast) {
	known := cast.Names()
	for i := range frames {
		names := MatchCastNames(frames[i].CharacterNames(), known)
		frames[i].Character = strings.Join(names, ",")
	}
}
