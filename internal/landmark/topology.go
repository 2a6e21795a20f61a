package landmark

// Face mesh indices following the MediaPipe face mesh topology.
// See: https://github.com/google-ai-edge/mediapipe/blob/master/mediapipe/modules/face_geometry/data/canonical_face_model_uv_visualization.png
const (
	Forehead   = 10
	UpperLip   = 13 // top of upper lip, inner edge
	LowerLip   = 14 // bottom of lower lip, inner edge
	LeftEye    = 33
	MouthLeft  = 61
	Chin       = 152
	RightEye   = 263
	MouthRight = 291

	NumFaceLandmarks        = 468
	NumRefinedFaceLandmarks = 478 // with iris points
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist            = 0
	ThumbCMC         = 1
	ThumbMCP         = 2
	ThumbIP          = 3
	ThumbTip         = 4
	IndexMCP         = 5
	IndexPIP         = 6
	IndexDIP         = 7
	IndexTip         = 8
	MiddleMCP        = 9
	MiddlePIP        = 10
	MiddleDIP        = 11
	MiddleTip        = 12
	RingMCP          = 13
	RingPIP          = 14
	RingDIP          = 15
	RingTip          = 16
	PinkyMCP         = 17
	PinkyPIP         = 18
	PinkyDIP         = 19
	PinkyTip         = 20
	NumHandLandmarks = 21
)

// MouthIndices are the face indices the mouth heuristics read.
var MouthIndices = []int{MouthLeft, MouthRight, UpperLip, LowerLip}

// BoxIndices are the face indices the overlay placement reads.
var BoxIndices = []int{LeftEye, RightEye, Forehead, Chin}
