package keywords

var portugueseStopWords = []string{
	"a", "o", "e", "de", "da", "do", "em", "um", "uma", "os", "as", "dos", "das",
	"para", "com", "por", "na", "no", "ao", "aos", "à", "às", "pelo", "pela",
	"este", "esta", "esse", "essa", "isto", "isso", "aquele", "aquela", "aquilo",
	"meu", "minha", "seu", "sua", "nosso", "nossa", "dele", "dela",
	"que", "qual", "quais", "quando", "onde", "como", "porque", "se",
	"mais", "menos", "muito", "pouco", "todo", "toda", "tudo",
	"já", "ainda", "também", "apenas", "só", "sempre", "nunca",
}

var englishStopWords = []string{
	"a", "an", "the", "and", "or", "but", "of", "to", "in", "on", "at", "by",
	"for", "with", "from", "into", "this", "that", "these", "those", "is", "are",
	"was", "were", "be", "been", "its", "his", "her", "their", "our", "your",
	"my", "mine", "what", "which", "when", "where", "how", "why", "who",
	"more", "less", "very", "all", "any", "some", "just", "also", "only",
	"always", "never", "still", "img", "image", "photo", "pic",
}

var stopWordTables = map[string][]string{
	"pt": portugueseStopWords,
	"en": englishStopWords,
}

func stopWordSet(lang string) map[string]struct{} {
	tables := [][]string{stopWordTables[lang]}
	if tables[0] == nil {
		tables = [][]string{portugueseStopWords, englishStopWords}
	}
	set := make(map[string]struct{})
	for _, table := range tables {
		for _, word := range table {
			set[word] = struct{}{}
		}
	}
	return set
}
