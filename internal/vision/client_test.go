package vision

import (
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/genproto/googleapis/rpc/status"

	"github.com/admitcoach/interview-ai/internal/nonverbal"
)

func faceResponse(confidence float32, joy visionpb.Likelihood) *visionpb.AnnotateImageResponse {
	return &visionpb.AnnotateImageResponse{
		FaceAnnotations: []*visionpb.FaceAnnotation{{
			DetectionConfidence: confidence,
			JoyLikelihood:       joy,
		}},
	}
}

func TestFaceFromResponse_LikelihoodLabels(t *testing.T) {
	tests := []struct {
		name string
		joy  visionpb.Likelihood
		want nonverbal.Likelihood
	}{
		{"Very unlikely", visionpb.Likelihood_VERY_UNLIKELY, nonverbal.VeryUnlikely},
		{"Unlikely", visionpb.Likelihood_UNLIKELY, nonverbal.Unlikely},
		{"Possible", visionpb.Likelihood_POSSIBLE, nonverbal.Possible},
		{"Likely", visionpb.Likelihood_LIKELY, nonverbal.Likely},
		{"Very likely", visionpb.Likelihood_VERY_LIKELY, nonverbal.VeryLikely},
		{"Unknown", visionpb.Likelihood_UNKNOWN, nonverbal.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annotation, err := faceFromResponse(faceResponse(0.8, tt.joy))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if annotation == nil {
				t.Fatal("expected an annotation for a detected face")
			}
			if got := nonverbal.LikelihoodFromLabel(annotation.JoyLabel); got != tt.want {
				t.Errorf("label %q maps to %s, want %s", annotation.JoyLabel, got, tt.want)
			}
		})
	}
}

func TestFaceFromResponse_Confidence(t *testing.T) {
	annotation, err := faceFromResponse(faceResponse(0.93, visionpb.Likelihood_LIKELY))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if annotation.Confidence < 0.92 || annotation.Confidence > 0.94 {
		t.Errorf("Confidence: got %v, want ~0.93", annotation.Confidence)
	}
}

func TestFaceFromResponse_NoFace(t *testing.T) {
	annotation, err := faceFromResponse(&visionpb.AnnotateImageResponse{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if annotation != nil {
		t.Errorf("expected nil annotation for faceless response, got %+v", annotation)
	}
}

func TestFaceFromResponse_ErrorStatus(t *testing.T) {
	resp := &visionpb.AnnotateImageResponse{
		Error: &status.Status{Code: 3, Message: "image too small"},
	}
	_, err := faceFromResponse(resp)
	if err == nil {
		t.Fatal("expected an error for a rejected image")
	}
}
