// Package vision adapts Google Cloud Vision face detection to the
// nonverbal.FaceAnnotator interface.
package vision

import (
	"context"
	"fmt"
	"time"

	visionapi "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/admitcoach/interview-ai/internal/nonverbal"
)

// annotateTimeout bounds a single face-detection call. A timed-out frame is
// reported as an error and absorbed by the analyzer like any other failure.
const annotateTimeout = 20 * time.Second

// Client wraps a Cloud Vision image annotator. Joy likelihood is used as the
// affect signal: it is the expression Cloud Vision reports most reliably and
// the one that matters for interview presence.
type Client struct {
	annotator *visionapi.ImageAnnotatorClient
	timeout   time.Duration
}

// NewClient creates a Cloud Vision client. Credentials follow the standard
// Google Cloud resolution; pass option.WithAPIKey to use a key instead.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	annotator, err := visionapi.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud Vision client: %w", err)
	}
	return &Client{annotator: annotator, timeout: annotateTimeout}, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.annotator.Close()
}

// AnnotateFace runs face detection on one image and returns the strongest
// detection, or nil when no face is found. Each frame is sent as a
// single-request batch, the only annotation entry point the v2 client offers.
func (c *Client) AnnotateFace(ctx context.Context, image []byte) (*nonverbal.FaceAnnotation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	batch, err := c.annotator.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{
				{Type: visionpb.Feature_FACE_DETECTION, MaxResults: 1},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("face detection request failed: %w", err)
	}

	responses := batch.GetResponses()
	if len(responses) == 0 {
		return nil, fmt.Errorf("face detection returned no response for frame")
	}

	annotation, err := faceFromResponse(responses[0])
	if err != nil {
		return nil, err
	}
	if annotation == nil {
		log.Debug().Dur("duration", time.Since(start)).Msg("No face detected in frame")
		return nil, nil
	}

	log.Debug().
		Float64("confidence", annotation.Confidence).
		Str("joy", annotation.JoyLabel).
		Dur("duration", time.Since(start)).
		Msg("Face detected in frame")

	return annotation, nil
}

// faceFromResponse extracts the strongest face annotation from one image's
// response, translating the joy likelihood enum to its label. Returns
// (nil, nil) when no face was found.
func faceFromResponse(resp *visionpb.AnnotateImageResponse) (*nonverbal.FaceAnnotation, error) {
	if respErr := resp.GetError(); respErr != nil {
		return nil, fmt.Errorf("face detection rejected: %s", respErr.GetMessage())
	}

	faces := resp.GetFaceAnnotations()
	if len(faces) == 0 {
		return nil, nil
	}

	face := faces[0]
	return &nonverbal.FaceAnnotation{
		Confidence: float64(face.GetDetectionConfidence()),
		JoyLabel:   visionpb.Likelihood_name[int32(face.GetJoyLikelihood())],
	}, nil
}
