package scanning

import (
	"encoding/base64"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Tesseract", func() {
	var (
		server     *ghttp.Server
		extractor  *Tesseract
		image      []byte
		transcript *Transcript
		err        error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		image = []byte("fake image bytes")

		extractor, err = NewTesseract(server.URL())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		transcript, err = extractor.Recognize(image, "eng")
	})

	When("the server recognizes the image", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/api/ocr"),
				ghttp.VerifyContentType("application/json"),
				ghttp.VerifyJSONRepresenting(tesseractRequest{
					Image:    base64.StdEncoding.EncodeToString(image),
					Language: "eng",
				}),
				ghttp.RespondWithJSONEncoded(http.StatusOK, tesseractResponse{
					Text:       "ACME STORE\nTOTAL: $5.00",
					Confidence: 91.5,
				}),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the recognized text", func() {
			Expect(transcript.Text).To(Equal("ACME STORE\nTOTAL: $5.00"))
		})

		It("returns the engine confidence", func() {
			Expect(transcript.Confidence).To(Equal(91.5))
		})
	})

	When("the server returns an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(
				ghttp.RespondWith(http.StatusInternalServerError, "engine crashed"),
			)
		})

		It("returns an ocr failure", func() {
			Expect(err).To(MatchError(ErrOCRFailure))
			Expect(err.Error()).To(ContainSubstring("engine crashed"))
		})
	})

	When("the server is unreachable", func() {
		BeforeEach(func() {
			server.Close()
		})

		It("returns an ocr failure", func() {
			Expect(err).To(MatchError(ErrOCRFailure))
		})
	})
})
