package diet

import (
	"strings"
	"unicode"

	"github.com/matheuskafuri/menuscore/internal/dining"
)

var beefMarkers = []string{
	"beef", "steak", "brisket", "veal", "pastrami", "corned beef", "roast beef",
	"hamburger", "cheeseburger", "burger", "meatloaf", "sirloin", "ribeye", "oxtail",
}

var porkMarkers = []string{
	"pork", "bacon", "ham", "sausage", "pepperoni", "prosciutto", "salami",
	"chorizo", "pancetta", "carnitas", "kielbasa", "bratwurst", "lard", "pulled pork",
}

var otherMeatMarkers = []string{
	"chicken", "turkey", "fish", "salmon", "tuna", "cod", "tilapia", "pollock",
	"haddock", "shrimp", "crab", "lobster", "clam", "scallop", "anchovy",
	"lamb", "duck", "meat", "meatball", "gelatin", "wings", "nuggets", "hot dog",
}

var animalProductMarkers = []string{
	"egg", "milk", "cheese", "butter", "buttermilk", "cream", "yogurt",
	"honey", "whey", "casein", "dairy", "mayonnaise", "mayo", "ghee", "omelet", "omelette",
	"parmesan", "mozzarella", "cheddar", "ricotta", "feta", "alfredo",
}

// substitutePhrases name stand-ins for a meat or dairy product. Inside a
// phrase only the meat words keep counting, so "turkey bacon" is meat but
// not pork and "almond milk" is not dairy.
var substitutePhrases = []string{
	"turkey bacon", "turkey sausage", "turkey ham", "turkey pepperoni", "turkey burger",
	"chicken sausage", "chicken burger", "salmon burger", "tuna burger",
	"veggie burger", "black bean burger", "bean burger", "mushroom burger",
	"portobello burger", "quinoa burger", "lentil meatball", "soy chorizo",
	"almond milk", "oat milk", "soy milk", "coconut milk", "rice milk", "cashew milk",
	"peanut butter", "almond butter", "sunflower butter", "apple butter",
	"cocoa butter", "shea butter", "nut butter", "coconut cream", "cream of tartar",
}

// plantPrefixes turn the marker words that directly follow them into
// plant-based stand-ins, as in "vegan chicken nuggets".
var plantPrefixes = map[string]bool{
	"veggie": true, "vegan": true, "vegetarian": true, "meatless": true,
	"impossible": true, "beyond": true,
}

var meatWords = wordSet(otherMeatMarkers)

var markerWords = wordSet(beefMarkers, porkMarkers, otherMeatMarkers, animalProductMarkers)

func wordSet(lists ...[]string) map[string]bool {
	out := make(map[string]bool)
	for _, l := range lists {
		for _, m := range l {
			for _, w := range strings.Fields(m) {
				out[w] = true
			}
		}
	}
	return out
}

func isMarkerWord(tok string) bool {
	return markerWords[tok] || markerWords[strings.TrimSuffix(tok, "s")] || markerWords[strings.TrimSuffix(tok, "es")]
}

// standIns marks the tokens of one segment that belong to a substitute.
func standIns(tokens []string) []bool {
	masked := make([]bool, len(tokens))
	for _, p := range substitutePhrases {
		parts := strings.Fields(p)
		for i := 0; i+len(parts) <= len(tokens); i++ {
			if !phraseAt(tokens, i, parts) {
				continue
			}
			for j, part := range parts {
				if !meatWords[part] {
					masked[i+j] = true
				}
			}
		}
	}
	for i, tok := range tokens {
		prefix := plantPrefixes[tok] ||
			(tok == "based" && i > 0 && tokens[i-1] == "plant")
		if !prefix {
			continue
		}
		for j := i + 1; j < len(tokens) && isMarkerWord(tokens[j]); j++ {
			masked[j] = true
		}
	}
	return masked
}

// Findings lists the markers found per exclusion reason.
type Findings map[dining.Exclusion][]string

// Detect scans an item's name and ingredients for dietary markers, ignoring
// preferences. The text is split into segments on list separators first, so
// words from neighbouring ingredients never qualify each other.
func Detect(name, ingredients string) Findings {
	var beef, pork, other, animal []string
	for _, seg := range segments(name + "," + ingredients) {
		tokens := tokenize(seg)
		masked := standIns(tokens)
		beef = append(beef, match(tokens, masked, beefMarkers)...)
		pork = append(pork, match(tokens, masked, porkMarkers)...)
		other = append(other, match(tokens, masked, otherMeatMarkers)...)
		animal = append(animal, match(tokens, masked, animalProductMarkers)...)
	}
	beef, pork, animal = dedupe(beef), dedupe(pork), dedupe(animal)

	f := make(Findings)
	if len(beef) > 0 {
		f[dining.Beef] = beef
	}
	if len(pork) > 0 {
		f[dining.Pork] = pork
	}

	meat := dedupe(append(append(append([]string{}, beef...), pork...), other...))
	if len(meat) > 0 {
		f[dining.NonVegetarian] = meat
		f[dining.NonVegan] = dedupe(append(meat, animal...))
	} else if len(animal) > 0 {
		f[dining.NonVegan] = animal
	}
	return f
}

// Reasons lists every reason with findings, in a fixed order.
func (f Findings) Reasons() []dining.Exclusion {
	var out []dining.Exclusion
	for _, r := range []dining.Exclusion{dining.Beef, dining.Pork, dining.NonVegetarian, dining.NonVegan} {
		if len(f[r]) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Active returns the reasons the preferences act on, in a fixed order.
func (f Findings) Active(prefs dining.Preferences) []dining.Exclusion {
	var out []dining.Exclusion
	if prefs.ExcludeBeef && len(f[dining.Beef]) > 0 {
		out = append(out, dining.Beef)
	}
	if prefs.ExcludePork && len(f[dining.Pork]) > 0 {
		out = append(out, dining.Pork)
	}
	if (prefs.Vegetarian || prefs.Vegan) && len(f[dining.NonVegetarian]) > 0 {
		out = append(out, dining.NonVegetarian)
	}
	if prefs.Vegan && len(f[dining.NonVegan]) > 0 {
		out = append(out, dining.NonVegan)
	}
	return out
}

// Evaluate returns the exclusion reasons triggered by the active preferences,
// in a fixed order. An empty result means the item passes.
func Evaluate(name, ingredients string, prefs dining.Preferences) []dining.Exclusion {
	return Detect(name, ingredients).Active(prefs)
}

// match returns the markers present in tokens. Single-word markers match
// whole tokens or their plural; multi-word markers match consecutive tokens.
// An occurrence touching a masked token does not count.
func match(tokens []string, masked []bool, markers []string) []string {
	var found []string
	for _, m := range markers {
		parts := strings.Fields(m)
		for i := 0; i+len(parts) <= len(tokens); i++ {
			if !phraseAt(tokens, i, parts) || anyMasked(masked[i:i+len(parts)]) {
				continue
			}
			found = append(found, m)
			break
		}
	}
	return found
}

func anyMasked(m []bool) bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

func phraseAt(tokens []string, i int, parts []string) bool {
	for j, p := range parts {
		t := tokens[i+j]
		if t != p && t != p+"s" && t != p+"es" {
			return false
		}
	}
	return true
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// segments splits s on list and group separators.
func segments(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(",;()[]", r)
	})
}

// tokenize lowercases s and splits it on every non-alphanumeric rune, so
// "Bacon-Wrapped" yields "bacon" and "wrapped".
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
