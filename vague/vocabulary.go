package vague

import (
	"sort"
	"strings"

	"github.com/poiesic/taskrank/core"
)

// genericWords holds question words, generic verbs, generic nouns and filler
// per language. Tokens found here carry no topical signal.
var genericWords = map[string][]string{
	"en": {
		// question words
		"what", "what's", "whats", "which", "who", "whom", "whose", "when", "where", "why", "how",
		// generic verbs
		"do", "does", "did", "doing", "have", "has", "had", "need", "needs", "should", "must",
		"can", "could", "would", "will", "shall", "may", "might", "get", "got", "make", "show",
		"list", "find", "give", "tell", "see", "look", "check", "want", "let", "go", "going",
		"be", "is", "am", "are", "was", "were", "been", "i'm", "im", "left", "remaining",
		// generic nouns
		"thing", "things", "stuff", "task", "tasks", "todo", "todos", "item", "items",
		"anything", "something", "everything", "nothing", "agenda", "plan", "plans",
		// filler
		"i", "me", "my", "mine", "we", "us", "our", "you", "your", "it", "its", "this", "that",
		"these", "those", "a", "an", "the", "to", "of", "for", "on", "in", "at", "by", "with",
		"about", "from", "up", "out", "any", "all", "some", "there", "here", "please", "now",
		"just", "also", "so", "then", "than", "too", "very", "really", "lot", "lots", "more",
		"most", "other", "due",
	},
	"zh": {
		"什么", "哪些", "哪个", "怎么", "怎样", "为什么", "如何", "谁", "几",
		"做", "要", "需要", "应该", "可以", "能", "有", "是", "干", "办", "看看", "列出", "显示",
		"事", "事情", "任务", "东西", "待办事项",
		"我", "我的", "我们", "你", "的", "了", "吗", "呢", "吧", "在", "还", "都", "给", "一下",
		"所有", "一些", "哪", "些",
	},
	"de": {
		"was", "welche", "welcher", "welches", "wer", "wann", "wo", "warum", "wie",
		"tun", "machen", "soll", "sollte", "muss", "kann", "habe", "hast", "hat", "ist", "sind",
		"sein", "gibt", "zeige", "zeig", "liste",
		"sachen", "dinge", "aufgabe", "aufgaben", "etwas",
		"ich", "mich", "mir", "mein", "meine", "du", "es", "der", "die", "das", "den", "dem",
		"ein", "eine", "zu", "für", "von", "mit", "auf", "an", "im", "in", "noch", "bitte", "alle",
	},
	"es": {
		"qué", "que", "cuál", "cuáles", "quién", "cuándo", "dónde", "por", "porqué", "cómo", "como",
		"hacer", "hago", "debo", "debería", "tengo", "tiene", "hay", "es", "son", "está", "muestra",
		"mostrar", "lista",
		"cosas", "tarea", "tareas", "algo",
		"yo", "me", "mi", "mis", "tú", "el", "la", "los", "las", "un", "una", "de", "del", "a",
		"en", "con", "para", "todas", "todos",
	},
}

// Vocabulary is the union of generic words for a set of languages.
type Vocabulary struct {
	words map[string]struct{}
}

// NewVocabulary builds the generic vocabulary for langs. Unknown language
// codes contribute nothing; when none are known English is used.
func NewVocabulary(langs []string) *Vocabulary {
	v := &Vocabulary{words: map[string]struct{}{}}
	for _, lang := range normalizeLangs(langs) {
		for _, w := range genericWords[lang] {
			v.words[w] = struct{}{}
		}
	}
	return v
}

func normalizeLangs(langs []string) []string {
	var out []string
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		// "zh-CN" and "de_AT" share the base vocabulary.
		if i := strings.IndexAny(l, "-_"); i > 0 {
			l = l[:i]
		}
		if _, ok := genericWords[l]; ok {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		out = []string{"en"}
	}
	return out
}

// IsGeneric reports whether a lowercase token is generic or filler.
func (v *Vocabulary) IsGeneric(token string) bool {
	_, ok := v.words[strings.ToLower(token)]
	return ok
}

// Words returns every word in the vocabulary, for segmenters.
func (v *Vocabulary) Words() []string {
	out := make([]string, 0, len(v.words))
	for w := range v.words {
		out = append(out, w)
	}
	return out
}

// TimeWord is a bare relative time phrase and the due symbol it denotes.
type TimeWord struct {
	Words  []string
	Symbol core.DueSymbol
}

var timeWords = map[string][]TimeWord{
	"en": {
		{[]string{"today"}, core.DueToday},
		{[]string{"tonight"}, core.DueToday},
		{[]string{"tomorrow"}, core.DueTomorrow},
		{[]string{"yesterday"}, core.DueYesterday},
		{[]string{"overdue"}, core.DueOverdue},
		{[]string{"od"}, core.DueOverdue},
		{[]string{"this", "week"}, core.DueThisWeek},
		{[]string{"next", "week"}, core.DueNextWeek},
		{[]string{"this", "month"}, core.DueThisMonth},
		{[]string{"next", "month"}, core.DueNextMonth},
	},
	"zh": {
		{[]string{"今天"}, core.DueToday},
		{[]string{"今日"}, core.DueToday},
		{[]string{"明天"}, core.DueTomorrow},
		{[]string{"昨天"}, core.DueYesterday},
		{[]string{"逾期"}, core.DueOverdue},
		{[]string{"过期"}, core.DueOverdue},
		{[]string{"本周"}, core.DueThisWeek},
		{[]string{"这周"}, core.DueThisWeek},
		{[]string{"下周"}, core.DueNextWeek},
		{[]string{"本月"}, core.DueThisMonth},
		{[]string{"这个月"}, core.DueThisMonth},
		{[]string{"下个月"}, core.DueNextMonth},
	},
	"de": {
		{[]string{"heute"}, core.DueToday},
		{[]string{"morgen"}, core.DueTomorrow},
		{[]string{"gestern"}, core.DueYesterday},
		{[]string{"überfällig"}, core.DueOverdue},
		{[]string{"diese", "woche"}, core.DueThisWeek},
		{[]string{"nächste", "woche"}, core.DueNextWeek},
		{[]string{"diesen", "monat"}, core.DueThisMonth},
		{[]string{"nächsten", "monat"}, core.DueNextMonth},
	},
	"es": {
		{[]string{"hoy"}, core.DueToday},
		{[]string{"mañana"}, core.DueTomorrow},
		{[]string{"ayer"}, core.DueYesterday},
		{[]string{"vencido"}, core.DueOverdue},
		{[]string{"vencidas"}, core.DueOverdue},
		{[]string{"atrasado"}, core.DueOverdue},
		{[]string{"esta", "semana"}, core.DueThisWeek},
		{[]string{"próxima", "semana"}, core.DueNextWeek},
		{[]string{"este", "mes"}, core.DueThisMonth},
		{[]string{"próximo", "mes"}, core.DueNextMonth},
	},
}

// TimeWords returns the relative time phrases for langs, longest first.
// English is always included since shorthand is English.
func TimeWords(langs []string) []TimeWord {
	seen := map[string]bool{}
	var out []TimeWord
	add := func(lang string) {
		if seen[lang] {
			return
		}
		seen[lang] = true
		out = append(out, timeWords[lang]...)
	}
	add("en")
	for _, l := range normalizeLangs(langs) {
		add(l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Words) > len(out[j].Words)
	})
	return out
}
