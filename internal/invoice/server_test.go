package invoice

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Server", func() {
	var (
		extractor   *mockExtractor
		service     *Service
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	postInvoice := func(body []byte) *http.Response {
		resp, err := http.Post(ghttpServer.URL()+"/api/multiple-invoice", "application/json", bytes.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	imageBody := func(image string) []byte {
		body, err := json.Marshal(map[string]string{"image": image})
		Expect(err).NotTo(HaveOccurred())
		return body
	}

	BeforeEach(func() {
		extractor = newMockExtractor()
		service = NewService(extractor)
		server = NewServerWithMux(service, http.NewServeMux())
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleIndex", func() {
		When("request method is GET", func() {
			It("should return status OK", func() {
				resp, err := http.Get(ghttpServer.URL() + "/")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})

			It("should return HTML containing Invoice Processor", func() {
				resp, err := http.Get(ghttpServer.URL() + "/")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("Invoice Processor"))
			})
		})

		When("request method is not GET", func() {
			It("should return status Method Not Allowed", func() {
				resp, err := http.Post(ghttpServer.URL()+"/", "text/plain", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
				resp.Body.Close()
			})
		})
	})

	Describe("static assets", func() {
		It("should serve the CSS with the correct content type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/static/app.css")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/css"))
		})

		It("should serve the JS with the correct content type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/static/app.js")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/javascript; charset=utf-8"))
		})
	})

	Describe("handleProcessInvoice", func() {
		When("the payload is a raw base64 image", func() {
			var resp *http.Response

			JustBeforeEach(func() {
				resp = postInvoice(imageBody(base64.StdEncoding.EncodeToString([]byte("fake image data"))))
			})

			AfterEach(func() {
				resp.Body.Close()
			})

			It("should return status OK", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})

			It("should return the invoice in a data envelope", func() {
				var body struct {
					Data struct {
						Date     *string                  `json:"date"`
						Products []map[string]interface{} `json:"products"`
					} `json:"data"`
				}
				Expect(json.NewDecoder(resp.Body).Decode(&body)).NotTo(HaveOccurred())
				Expect(body.Data.Date).NotTo(BeNil())
				Expect(*body.Data.Date).To(Equal("15-01-2024"))
				Expect(body.Data.Products).To(HaveLen(1))
				Expect(body.Data.Products[0]).To(HaveKeyWithValue("Item_ID", "AB-1234"))
				Expect(body.Data.Products[0]).To(HaveKeyWithValue("Item_Description", "Oil filter for sedan"))
				Expect(body.Data.Products[0]).To(HaveKeyWithValue("Unit_Price", 25.99))
				Expect(body.Data.Products[0]).To(HaveKeyWithValue("Quantity", float64(2)))
				Expect(body.Data.Products[0]).To(HaveKeyWithValue("Tax", 7.80))
				Expect(body.Data.Products[0]).To(HaveKeyWithValue("Total_Amount", 59.78))
			})

			It("should set Content-Type to application/json", func() {
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
			})
		})

		When("the payload is a data-URI", func() {
			It("should decode only the substring after the last comma", func() {
				encoded := base64.StdEncoding.EncodeToString([]byte("fake image data"))
				resp := postInvoice(imageBody("data:image/jpeg;base64," + encoded))
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(extractor.images).To(HaveLen(1))
				Expect(extractor.images[0]).To(Equal([]byte("fake image data")))
			})
		})

		When("the payload is not valid base64", func() {
			var resp *http.Response

			JustBeforeEach(func() {
				resp = postInvoice(imageBody("this is not base64!!!"))
			})

			AfterEach(func() {
				resp.Body.Close()
			})

			It("should return status Internal Server Error", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			})

			It("should return the generic failure detail", func() {
				var body map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&body)).NotTo(HaveOccurred())
				Expect(body).To(HaveKeyWithValue("detail", "Invoice processing failed"))
			})
		})

		When("the extractor fails", func() {
			BeforeEach(func() {
				extractor.extractErr = errors.New("model unavailable")
			})

			It("should return status Internal Server Error with the generic detail", func() {
				resp := postInvoice(imageBody(base64.StdEncoding.EncodeToString([]byte("fake image data"))))
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				var body map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&body)).NotTo(HaveOccurred())
				Expect(body).To(HaveKeyWithValue("detail", "Invoice processing failed"))
			})
		})

		When("the request body is not JSON", func() {
			It("should return status Bad Request", func() {
				resp := postInvoice([]byte("not json"))
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				var body map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&body)).NotTo(HaveOccurred())
				Expect(body).To(HaveKeyWithValue("detail", "Invalid request body"))
			})
		})

		When("the image field is missing", func() {
			It("should return status Bad Request", func() {
				resp := postInvoice([]byte(`{}`))
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the same request is sent twice", func() {
			It("should return identical responses", func() {
				body := imageBody(base64.StdEncoding.EncodeToString([]byte("fake image data")))

				resp1 := postInvoice(body)
				first, err := io.ReadAll(resp1.Body)
				Expect(err).NotTo(HaveOccurred())
				resp1.Body.Close()

				ghttpServer.AppendHandlers(server.ServeHTTP)
				resp2 := postInvoice(body)
				second, err := io.ReadAll(resp2.Body)
				Expect(err).NotTo(HaveOccurred())
				resp2.Body.Close()

				Expect(second).To(Equal(first))
			})
		})
	})

	Describe("CORS", func() {
		It("should answer preflight OPTIONS with no content", func() {
			req, err := http.NewRequest("OPTIONS", ghttpServer.URL()+"/api/multiple-invoice", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})

		It("should set CORS headers on API responses", func() {
			resp := postInvoice(imageBody(base64.StdEncoding.EncodeToString([]byte("fake image data"))))
			defer resp.Body.Close()

			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})
})
