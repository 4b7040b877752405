package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"rum", "ro"},
		{"ron", "ro"},
		{"chi", "zh"},
		{"jpn", "ja"},
		{"Romanian", "ro"},
		{"russian", "ru"},
		{"zh-CN", "zh"},
		{"pt_BR", "pt"},
		{"xy", "xy"},
		{"not a code!!", ""},
		{"", ""},
		{" ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO2(tt.input); got != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"":    "Unknown",
		"ro":  "Romanian",
		"jpn": "Japanese",
		"sv":  "Swedish",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCloudCode(t *testing.T) {
	tests := map[string]string{
		"zh":      "zh-CN",
		"chinese": "zh-CN",
		"ro":      "ro",
		"eng":     "en",
	}
	for input, want := range tests {
		if got := CloudCode(input); got != want {
			t.Errorf("CloudCode(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestScriptIdentifier(t *testing.T) {
	id := NewScriptIdentifier()
	tests := []struct {
		name string
		text string
		lang string
		want bool
	}{
		{"short text always matches", "ok", "ru", true},
		{"russian cyrillic", "Привет, как дела?", "ru", true},
		{"russian rejects latin", "Hello, how are you?", "ru", false},
		{"chinese han", "你好世界今天", "zh", true},
		{"chinese rejects latin", "hello world", "zh", false},
		{"japanese kana", "こんにちは、世界", "ja", true},
		{"japanese rejects cyrillic", "Привет мир", "ja", false},
		{"romanian latin", "Bună ziua, lume", "ro", true},
		{"romanian rejects cyrillic", "Здравствуйте", "ro", false},
		{"english ascii", "Good morning everyone", "en", true},
		{"english rejects han", "早上好大家好", "en", false},
		{"unknown language matches", "Hallo Welt", "de", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := id.Matches(tt.text, tt.lang); got != tt.want {
				t.Fatalf("Matches(%q, %q) = %v, want %v", tt.text, tt.lang, got, tt.want)
			}
		})
	}
}

func TestScriptIdentifierIsDeterministic(t *testing.T) {
	var id Identifier = NewScriptIdentifier()
	first := id.Matches("Bună ziua", "ro")
	for range 10 {
		if id.Matches("Bună ziua", "ro") != first {
			t.Fatal("identifier changed its answer")
		}
	}
}
