package code

import "testing"

func TestDetectLanguages(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"python", "import os\n\ndef main():\n    print(os.getcwd())\n", "python"},
		{"go", "package main\n\nfunc main() {\n\tx := 1\n\tfmt.Println(x)\n}\n", "go"},
		{"javascript", "const add = (a, b) => a + b;\nconsole.log(add(1, 2));\n", "javascript"},
		{"sql", "SELECT id, name FROM users WHERE active = 1 GROUP BY name;", "sql"},
		{"shell", "#!/bin/bash\necho \"hello $USER\"\n", "shell"},
		{"rust", "pub fn main() {\n    let mut x = 1;\n    println!(\"{}\", x);\n}\n", "rust"},
	}
	d := NewLanguageDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, conf := d.Detect(tt.source)
			if lang != tt.want {
				t.Errorf("Detect() language = %q, want %q", lang, tt.want)
			}
			if conf <= 0 || conf > 1 {
				t.Errorf("confidence %f out of range", conf)
			}
		})
	}
}

func TestDetectOneLinerPython(t *testing.T) {
	d := NewLanguageDetector()
	lang, conf := d.Detect("def f(x): return x*2")
	if lang != "python" {
		t.Errorf("language = %q, want python", lang)
	}
	if conf <= 0 {
		t.Errorf("confidence = %f, want > 0", conf)
	}
}

func TestDetectEmptyAndProse(t *testing.T) {
	d := NewLanguageDetector()
	if lang, conf := d.Detect(""); lang != "unknown" || conf != 0 {
		t.Errorf("empty input = %q/%f, want unknown/0", lang, conf)
	}
}

func TestAgreementBeatsKeywordOnly(t *testing.T) {
	// A rich Go sample should score higher than a bare keyword hit because
	// both signals agree.
	d := NewLanguageDetector()
	_, rich := d.Detect("package main\n\nimport \"fmt\"\n\nfunc main() {\n\tch := make(chan int)\n\tdefer close(ch)\n\tfmt.Println(<-ch)\n}\n")
	_, thin := d.Detect("x := 1")
	if rich <= thin {
		t.Errorf("rich sample confidence %f should exceed thin sample %f", rich, thin)
	}
}
