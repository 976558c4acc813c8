// Package ocr holds the recognized text-layout model consumed by the PDF
// exporter (pages of lines and words in image pixel coordinates) and the small
// contract used to plug recognition engines such as Tesseract into the pipeline.
// Engines produce Pages; the exporter only ever reads them.
package ocr
