package text

// DefaultStopWords is the built-in English stop word list, used when no
// override is configured.
var DefaultStopWords = []string{
	"the", "and", "for", "are", "but", "not", "you", "all", "can", "her",
	"was", "one", "our", "out", "day", "get", "has", "him", "his", "how",
	"its", "may", "new", "now", "old", "see", "two", "way", "who", "did",
	"that", "this", "with", "have", "from", "they", "will", "would", "there",
	"their", "what", "about", "which", "when", "make", "like", "time", "just",
	"know", "take", "into", "your", "some", "could", "them", "than", "then",
	"also", "more", "these", "want", "been", "much", "where", "were", "does",
	"only", "over", "such", "very", "after", "most", "other", "should",
	"because", "through", "being", "before", "between", "both", "each",
	"here", "same", "while", "those",
}
