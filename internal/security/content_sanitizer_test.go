package security

import "testing"

// TestContentSanitizer_StripsAllTags は全てのHTMLタグが除去されることをテストする。
func TestContentSanitizer_StripsAllTags(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"タグなし", "생일 파티", "생일 파티"},
		{"強調タグ", "<b>중요한</b> 일정", "중요한 일정"},
		{"scriptタグ", `<script>alert("xss")</script>여행`, "여행"},
		{"imgタグ", `<img src="x" onerror="alert(1)">기념일`, "기념일"},
		{"リンクタグ", `<a href="https://evil.example">클릭</a>`, "클릭"},
		{"ネストしたタグ", "<div><p><em>시험</em></p></div>", "시험"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestContentSanitizer_PreservesPlainText はタグ除去後のエンティティ参照が
// 元の文字に戻ることをテストする。
func TestContentSanitizer_PreservesPlainText(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize("결혼 & 기념일")
	if got != "결혼 & 기념일" {
		t.Errorf("Sanitize = %q, want %q", got, "결혼 & 기념일")
	}
}

// TestContentSanitizer_Idempotent は同一入力に対して常に同一出力を返すことをテストする。
func TestContentSanitizer_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>생일 <script>alert(1)</script>파티</p>`
	first := s.Sanitize(input)
	second := s.Sanitize(first)
	if first != second {
		t.Errorf("冪等でない: 1回目 %q, 2回目 %q", first, second)
	}
}
