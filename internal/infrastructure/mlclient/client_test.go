package mlclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictCropSendsFeaturesAndParsesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict/crop", r.URL.Path)
		var in CropRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, 90.0, in.Nitrogen)
		assert.Equal(t, 6.5, in.PH)
		_, _ = io.WriteString(w, `{"crop":"rice","confidence":87.456,"imageUrl":"https://img/rice.jpg"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	res, err := c.PredictCrop(context.Background(), CropRequest{Nitrogen: 90, PH: 6.5})
	require.NoError(t, err)
	assert.Equal(t, "rice", res.Crop)
	assert.Equal(t, 87.46, res.Confidence)
	assert.Equal(t, "https://img/rice.jpg", res.ImageURL)
}

func TestPredictFertilizerAcceptsNumericLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"fertilizer":3,"confidence":90,"description":"d","imageUrl":"u"}`)
	}))
	defer srv.Close()

	res, err := New(srv.URL, time.Second).PredictFertilizer(context.Background(), FertilizerRequest{Soil: "Clay", Crop: "Rice"})
	require.NoError(t, err)
	assert.Equal(t, "3", res.Fertilizer)
}

func TestPredictDiseaseUploadsMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "leaf.jpg", hdr.Filename)
		assert.Equal(t, "imagebytes", string(b))
		_, _ = io.WriteString(w, `{"disease":"Grape - Black rot","confidence":91.2,"remedies":["Prune"]}`)
	}))
	defer srv.Close()

	res, err := New(srv.URL, time.Second).PredictDisease(context.Background(), "leaf.jpg", strings.NewReader("imagebytes"))
	require.NoError(t, err)
	assert.Equal(t, "Grape - Black rot", res.Disease)
	assert.Equal(t, []string{"Prune"}, res.Remedies)
}

func TestErrorsAreClassified(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = io.WriteString(w, `{"detail":"model exploded"}`)
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second)

	_, err := c.PredictCrop(context.Background(), CropRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "model exploded")

	status.Store(http.StatusUnprocessableEntity)
	_, err = c.PredictCrop(context.Background(), CropRequest{})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestUnreachableServiceIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url, 200*time.Millisecond).Health(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
