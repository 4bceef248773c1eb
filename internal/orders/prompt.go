package orders

import (
	"fmt"
	"strings"

	"github.com/bizflow/ai-svc/internal/models"
)

const (
	contextHeader    = "DANH SÁCH SẢN PHẨM TRONG KHO (Gợi ý):"
	contextNoMatch   = "Không tìm thấy sản phẩm nào trong kho khớp với câu nói."
	transcribeTask   = "Chép lại nội dung đoạn ghi âm này bằng tiếng Việt:"
	overloadMarker   = " (Lỗi: Hệ thống quá tải, thử lại sau)"
	defaultAudioMIME = "audio/webm"
)

// buildContext renders catalog matches as the suggestion block the
// extraction prompt embeds. At most maxProducts lines are emitted.
func buildContext(matches []models.ProductMatch, maxProducts int) string {
	if len(matches) == 0 {
		return contextNoMatch
	}
	if maxProducts > 0 && len(matches) > maxProducts {
		matches = matches[:maxProducts]
	}
	var b strings.Builder
	b.WriteString(contextHeader)
	b.WriteByte('\n')
	for _, m := range matches {
		fmt.Fprintf(&b, "- Tên: %s | Giá: %s | Đơn vị: %s\n", m.Name, m.Price, m.Unit)
	}
	return b.String()
}

// buildPrompt assembles the full extraction prompt: role, catalog
// context, extraction rules, the customer message, and the expected
// JSON shape.
func buildPrompt(message, contextBlock string) string {
	var b strings.Builder
	b.WriteString("Bạn là nhân viên bán hàng. Hãy trích xuất đơn hàng từ câu nói khách hàng thành JSON.\n\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nQUY TẮC:\n")
	b.WriteString("1. **product_name**: Ưu tiên dùng tên trong danh sách gợi ý nếu khớp.\n")
	b.WriteString("2. **quantity**: Số lượng (số thực).\n")
	b.WriteString("3. **unit**: Đơn vị tính.\n")
	b.WriteString("4. **customer_name**: Tên khách (nếu có).\n")
	b.WriteString("5. **is_debt**: True nếu nợ.\n\n")
	fmt.Fprintf(&b, "Câu khách nói: %q\n\n", message)
	b.WriteString(`Output JSON: { "customer_name": null, "items": [{ "product_name": "...", "quantity": 1, "unit": "..." }], "is_debt": false, "original_message": "..." }`)
	return b.String()
}
