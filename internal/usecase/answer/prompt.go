package answer

// systemPrompt pins the model's role and output language. Kept in English;
// the answers it produces are Indonesian.
const systemPrompt = "You are an expert customer support and promotional information assistant for Indonesian banking promotions. " +
	"Always respond in fluent Indonesian, regardless of the user's language. " +
	"Use ONLY the provided JSON promo data as your source of truth. " +
	"If the answer is uncertain or missing, say so honestly and suggest checking the URL."

// buildUserMessage embeds the promo context and the question into the task
// template the model answers against.
func buildUserMessage(contextJSON, question string) string {
	return "Berikut data promo dalam JSON:\n" +
		contextJSON +
		"\n\nTugas:\n" +
		"1) Jawab dalam bahasa Indonesia yang jelas dan santai.\n" +
		"2) Gunakan hanya data di atas (jangan mengarang).\n" +
		"3) Jika ada banyak promo, urutkan berdasarkan relevansi dengan pertanyaan.\n" +
		"4) Sertakan tanggal periode, benefit utama, metode pembayaran, deskripsi lengkap dan URL.\n\n" +
		"Pertanyaan: " + question
}
