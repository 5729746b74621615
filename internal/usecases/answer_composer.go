package usecases

import (
	"context"
	"fmt"
	"project_sheetbot/internal/entities"
	"project_sheetbot/internal/interfaces"
	"strings"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// Fixed reply texts.
const (
	StockHeader        = "Berikut daftar stok produk saat ini:\n\n"
	StockFooter        = "\nUntuk melihat detail, ketik `!detail <nama_produk>`."
	StockFailureReply  = "Maaf, gagal mengambil data stok. Mohon cek konfigurasi sheet."
	DetailStubReply    = "Fitur detail produk sedang dalam pengembangan. Mohon tunggu."
	QuestionErrorReply = "Maaf, ada masalah saat memproses permintaan Anda."
	MissingQuantity    = "N/A"
)

const questionPromptTemplate = `Kamu adalah asisten AI yang bertugas menjawab pertanyaan pengguna.
Kamu memiliki akses ke data dari berbagai sheet Google Spreadsheet.

Berikut adalah data yang diambil langsung dari beberapa sheet. Setiap sheet ditandai dengan nama sheetnya:
--- DATA SPREADSHEET ---
%s
--- AKHIR DATA ---

Peraturan:
1. Jawab pertanyaan pengguna HANYA berdasarkan data yang ada di bagian "DATA SPREADSHEET".
2. Sebutkan nama sheet dari mana informasi itu berasal.
3. Jangan membuat asumsi tentang data lain yang tidak diberikan.
4. Jika informasi yang ditanya pengguna tidak ada dalam data, katakan dengan sopan bahwa Anda tidak dapat menemukan informasi tersebut di spreadsheet.
5. Jaga percakapan tetap relevan dan profesional.
6. Jawab dalam bahasa yang digunakan pengguna.

Pertanyaan pengguna: %s`

// FormatStockList pairs names and quantities by row index. Rows with an empty
// name are skipped but keep their index, so numbering shows the gaps.
func FormatStockList(names, quantities entities.SheetTable) string {
	n := len(names.Rows)
	if len(quantities.Rows) > n {
		n = len(quantities.Rows)
	}

	var sb strings.Builder
	sb.WriteString(StockHeader)
	for i := 0; i < n; i++ {
		name, _ := names.Cell(i, 0)
		if name == "" {
			continue
		}
		qty, ok := quantities.Cell(i, 0)
		if !ok {
			qty = MissingQuantity
		}
		sb.WriteString(fmt.Sprintf("%d. %s: *%s*\n", i+1, name, qty))
	}
	sb.WriteString(StockFooter)
	return sb.String()
}

// BuildQuestionPrompt embeds the context block and the question verbatim.
func BuildQuestionPrompt(contextBlock, question string) string {
	return fmt.Sprintf(questionPromptTemplate, contextBlock, question)
}

// AnswerComposer produces the reply text for each routed command.
type AnswerComposer struct {
	sheets        *SheetContext
	ai            interfaces.AIClient
	stockNames    entities.SheetRange
	stockQuantity entities.SheetRange
	contextRanges []entities.SheetRange
	log           waLog.Logger
}

// ComposerRanges names the ranges the composer reads.
type ComposerRanges struct {
	StockNames      entities.SheetRange
	StockQuantities entities.SheetRange
	Context         []entities.SheetRange
}

func NewAnswerComposer(sheets *SheetContext, ai interfaces.AIClient, ranges ComposerRanges, log waLog.Logger) *AnswerComposer {
	if log == nil {
		log = waLog.Noop
	}
	ctxRanges := make([]entities.SheetRange, len(ranges.Context))
	copy(ctxRanges, ranges.Context)
	return &AnswerComposer{
		sheets:        sheets,
		ai:            ai,
		stockNames:    ranges.StockNames,
		stockQuantity: ranges.StockQuantities,
		contextRanges: ctxRanges,
		log:           log,
	}
}

// Compose returns exactly one reply for cmd.
func (c *AnswerComposer) Compose(ctx context.Context, cmd Command) string {
	switch v := cmd.(type) {
	case StockCommand:
		return c.stockReply(ctx)
	case DetailCommand:
		c.log.Infof("Detail requested for %q", v.Product)
		return DetailStubReply
	case QuestionCommand:
		return c.questionReply(ctx, v.Text)
	default:
		c.log.Errorf("Unhandled command type %T", cmd)
		return QuestionErrorReply
	}
}

func (c *AnswerComposer) stockReply(ctx context.Context) string {
	names := c.sheets.FetchRange(ctx, c.stockNames)
	quantities := c.sheets.FetchRange(ctx, c.stockQuantity)
	if names.Failed() || quantities.Failed() {
		return StockFailureReply
	}
	return FormatStockList(names.Table, quantities.Table)
}

func (c *AnswerComposer) questionReply(ctx context.Context, question string) string {
	contextBlock := c.sheets.Aggregate(ctx, c.contextRanges)
	prompt := BuildQuestionPrompt(contextBlock, question)

	answer, err := c.ai.GenerateResponse(ctx, prompt)
	if err != nil {
		c.log.Errorf("Language model failed: %v", err)
		return QuestionErrorReply
	}
	return answer
}
