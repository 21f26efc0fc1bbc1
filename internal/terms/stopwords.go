package terms

import "strings"

var stopwordLists = map[string][]string{
	"english": {
		"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any",
		"are", "as", "at", "be", "because", "been", "before", "being", "below", "between", "both",
		"but", "by", "can", "could", "did", "do", "does", "doing", "don", "down", "during", "each",
		"else", "few", "for", "from", "further", "had", "has", "have", "having", "he", "her", "here",
		"hers", "herself", "him", "himself", "his", "how", "i", "if", "in", "into", "is", "it", "it's",
		"its", "itself", "just", "me", "might", "more", "most", "must", "my", "myself", "no", "nor",
		"not", "now", "of", "off", "on", "once", "only", "or", "other", "our", "ours", "ourselves",
		"out", "over", "own", "same", "shall", "she", "should", "so", "some", "such", "than", "that",
		"the", "their", "theirs", "them", "themselves", "then", "there", "these", "they", "this",
		"those", "through", "to", "too", "under", "until", "up", "us", "very", "was", "we", "were",
		"what", "when", "where", "which", "while", "who", "whom", "why", "will", "with", "would",
		"you", "your", "yours", "yourself", "yourselves",
	},
	"french": {
		"a", "au", "aux", "avec", "ce", "ces", "cette", "dans", "de", "des", "du", "elle", "elles",
		"en", "est", "et", "eux", "il", "ils", "je", "la", "le", "les", "leur", "leurs", "lui", "ma",
		"mais", "me", "mes", "moi", "mon", "ne", "nos", "notre", "nous", "on", "ou", "où", "par",
		"pas", "pour", "qu", "que", "qui", "sa", "se", "ses", "son", "sont", "sur", "ta", "te", "tes",
		"toi", "ton", "tu", "un", "une", "vos", "votre", "vous", "été", "être", "avoir", "fait",
		"plus", "comme", "c'est", "d'un", "d'une", "l'on",
	},
}

// Stopwords returns the stopword set for a language name or ISO code.
// Unknown languages fall back to English.
func Stopwords(language string) map[string]struct{} {
	words, ok := stopwordLists[canonicalLanguage(language)]
	if !ok {
		words = stopwordLists["english"]
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func canonicalLanguage(language string) string {
	switch l := strings.ToLower(strings.TrimSpace(language)); l {
	case "en", "eng":
		return "english"
	case "fr", "fra", "fre", "français", "francais":
		return "french"
	default:
		return l
	}
}
