package deck

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// column A holds the question, column B the answer, row 1 is a header
const (
	questionColumn = 0
	answerColumn   = 1
	headerRows     = 1
)

// parseWorkbook read flashcards from the first sheet of an xlsx workbook
func parseWorkbook(deckID string, workbook io.Reader) ([]*FlashcardModel, *ImportResult, error) {
	f, err := excelize.OpenReader(workbook)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: no sheet found", ErrInvalidWorkbook)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	var cards []*FlashcardModel
	for i, row := range rows {
		if i < headerRows {
			continue
		}
		question, answer := cell(row, questionColumn), cell(row, answerColumn)
		switch {
		case question == "" && answer == "":
			result.Skipped++
		case question == "":
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: question is empty", i+1))
		case answer == "":
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: answer is empty", i+1))
		default:
			cards = append(cards, &FlashcardModel{DeckID: deckID, Question: question, Answer: answer})
		}
	}
	return cards, result, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
