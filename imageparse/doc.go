// Package imageparse parses image elements. It fuses four analyses into
// one metadata record: caption extraction from metadata fields and
// associated text, multi-source image type classification, optional OCR
// text recognition, and natural-language detection over the recovered
// text.
//
// OCR requires Tesseract and is compiled in with the "ocr" build tag;
// without it the recognizer reports ErrOCRNotEnabled and the parser
// degrades to the remaining signals.
package imageparse
