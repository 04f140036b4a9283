package chat

import (
	"fmt"
	"strings"

	"github.com/nahidhasan/banglarag/internal/language"
	"github.com/nahidhasan/banglarag/internal/memory"
	"github.com/nahidhasan/banglarag/internal/retrieval"
)

// Canonical refusal phrases. The system prompts instruct the model to use
// these verbatim when the retrieved context does not hold the answer, and
// the apology strings are returned directly when generation fails.
const (
	RefusalBengali = "এই তথ্য প্রদত্ত প্রসঙ্গে নেই"
	RefusalEnglish = "This information is not available in the provided context"

	apologyBengali = "দুঃখিত, এই মুহূর্তে উত্তর তৈরি করা সম্ভব হচ্ছে না। অনুগ্রহ করে কিছুক্ষণ পরে আবার চেষ্টা করুন।"
	apologyEnglish = "Sorry, an answer could not be generated right now. Please try again in a moment."
)

// Apology returns the generation-failure message in the query's language.
func Apology(lang language.Language) string {
	if lang == language.Bengali {
		return apologyBengali
	}
	return apologyEnglish
}

// systemPrompt builds the per-language instruction block with the
// retrieved context inlined. An empty context still produces a prompt;
// the instructions then force the canonical refusal.
func systemPrompt(lang language.Language, contextText string) string {
	if contextText == "" {
		contextText = noContextMarker(lang)
	}
	switch lang {
	case language.Bengali:
		return fmt.Sprintf(`আপনি একটি সহায়ক প্রশ্নোত্তর সহকারী। শুধুমাত্র নিচের প্রসঙ্গ ব্যবহার করে বাংলায় উত্তর দিন।
প্রসঙ্গে উত্তর না থাকলে হুবহু লিখুন: "%s"। প্রসঙ্গের বাইরের কোনো তথ্য বানাবেন না।

প্রসঙ্গ:
%s`, RefusalBengali, contextText)
	case language.Mixed:
		return fmt.Sprintf(`You are a helpful question answering assistant for Bengali and English content.
Answer in the language of the question, using ONLY the context below.
If the context does not contain the answer, reply exactly: "%s" for English questions or "%s" for Bengali questions.
Never invent information beyond the context.

Context:
%s`, RefusalEnglish, RefusalBengali, contextText)
	default:
		return fmt.Sprintf(`You are a helpful question answering assistant.
Answer in English using ONLY the context below.
If the context does not contain the answer, reply exactly: "%s".
Never invent information beyond the context.

Context:
%s`, RefusalEnglish, contextText)
	}
}

func noContextMarker(lang language.Language) string {
	if lang == language.Bengali {
		return "(কোনো প্রাসঙ্গিক তথ্য পাওয়া যায়নি)"
	}
	return "(no relevant context found)"
}

// ContextText flattens retrieved chunks into the prompt context block,
// best match first, each labelled with its source document.
func ContextText(result *retrieval.Result) string {
	if result == nil || len(result.Chunks) == 0 {
		return ""
	}
	parts := make([]string, len(result.Chunks))
	for i, c := range result.Chunks {
		parts[i] = fmt.Sprintf("[%s #%d]\n%s", c.Document, c.ChunkIndex, c.Text)
	}
	return strings.Join(parts, "\n\n")
}

// historyWindow returns the most recent n turns, oldest first.
func historyWindow(turns []memory.Turn, n int) []memory.Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}
