package pose

import "fmt"

// LandmarkID names one of the 33 body landmarks produced by the pose estimator
type LandmarkID string

const (
	LandmarkNose           LandmarkID = "nose"
	LandmarkLeftEyeInner   LandmarkID = "left_eye_inner"
	LandmarkLeftEye        LandmarkID = "left_eye"
	LandmarkLeftEyeOuter   LandmarkID = "left_eye_outer"
	LandmarkRightEyeInner  LandmarkID = "right_eye_inner"
	LandmarkRightEye       LandmarkID = "right_eye"
	LandmarkRightEyeOuter  LandmarkID = "right_eye_outer"
	LandmarkLeftEar        LandmarkID = "left_ear"
	LandmarkRightEar       LandmarkID = "right_ear"
	LandmarkMouthLeft      LandmarkID = "mouth_left"
	LandmarkMouthRight     LandmarkID = "mouth_right"
	LandmarkLeftShoulder   LandmarkID = "left_shoulder"
	LandmarkRightShoulder  LandmarkID = "right_shoulder"
	LandmarkLeftElbow      LandmarkID = "left_elbow"
	LandmarkRightElbow     LandmarkID = "right_elbow"
	LandmarkLeftWrist      LandmarkID = "left_wrist"
	LandmarkRightWrist     LandmarkID = "right_wrist"
	LandmarkLeftPinky      LandmarkID = "left_pinky"
	LandmarkRightPinky     LandmarkID = "right_pinky"
	LandmarkLeftIndex      LandmarkID = "left_index"
	LandmarkRightIndex     LandmarkID = "right_index"
	LandmarkLeftThumb      LandmarkID = "left_thumb"
	LandmarkRightThumb     LandmarkID = "right_thumb"
	LandmarkLeftHip        LandmarkID = "left_hip"
	LandmarkRightHip       LandmarkID = "right_hip"
	LandmarkLeftKnee       LandmarkID = "left_knee"
	LandmarkRightKnee      LandmarkID = "right_knee"
	LandmarkLeftAnkle      LandmarkID = "left_ankle"
	LandmarkRightAnkle     LandmarkID = "right_ankle"
	LandmarkLeftHeel       LandmarkID = "left_heel"
	LandmarkRightHeel      LandmarkID = "right_heel"
	LandmarkLeftFootIndex  LandmarkID = "left_foot_index"
	LandmarkRightFootIndex LandmarkID = "right_foot_index"
)

// AllLandmarks lists landmarks in estimator index order (index 0 is the nose)
var AllLandmarks = []LandmarkID{
	LandmarkNose,
	LandmarkLeftEyeInner, LandmarkLeftEye, LandmarkLeftEyeOuter,
	LandmarkRightEyeInner, LandmarkRightEye, LandmarkRightEyeOuter,
	LandmarkLeftEar, LandmarkRightEar,
	LandmarkMouthLeft, LandmarkMouthRight,
	LandmarkLeftShoulder, LandmarkRightShoulder,
	LandmarkLeftElbow, LandmarkRightElbow,
	LandmarkLeftWrist, LandmarkRightWrist,
	LandmarkLeftPinky, LandmarkRightPinky,
	LandmarkLeftIndex, LandmarkRightIndex,
	LandmarkLeftThumb, LandmarkRightThumb,
	LandmarkLeftHip, LandmarkRightHip,
	LandmarkLeftKnee, LandmarkRightKnee,
	LandmarkLeftAnkle, LandmarkRightAnkle,
	LandmarkLeftHeel, LandmarkRightHeel,
	LandmarkLeftFootIndex, LandmarkRightFootIndex,
}

// LandmarkByIndex maps an estimator landmark index to its ID
func LandmarkByIndex(index int) (LandmarkID, bool) {
	if index < 0 || index >= len(AllLandmarks) {
		return "", false
	}
	return AllLandmarks[index], true
}

// ParseLandmarkID validates a landmark name
func ParseLandmarkID(name string) (LandmarkID, error) {
	for _, id := range AllLandmarks {
		if string(id) == name {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown landmark %q", name)
}

// JointID identifies an evaluated joint. The set is closed: only the
// constants below are valid.
type JointID string

const (
	JointRightElbow    JointID = "right_elbow"
	JointLeftElbow     JointID = "left_elbow"
	JointRightKnee     JointID = "right_knee"
	JointLeftKnee      JointID = "left_knee"
	JointHip           JointID = "hip"
	JointTorso         JointID = "torso"
	JointRightShoulder JointID = "right_shoulder"
	JointLeftShoulder  JointID = "left_shoulder"
)

// Joint describes how a joint angle is measured: the angle at Vertex
// between the rays Vertex->A and Vertex->C.
type Joint struct {
	ID          JointID
	DisplayName string
	A           LandmarkID
	Vertex      LandmarkID
	C           LandmarkID
}

// AllJoints is the registry of evaluated joints, in evaluation order
var AllJoints = []Joint{
	{ID: JointRightElbow, DisplayName: "Right Elbow", A: LandmarkRightShoulder, Vertex: LandmarkRightElbow, C: LandmarkRightWrist},
	{ID: JointLeftElbow, DisplayName: "Left Elbow", A: LandmarkLeftShoulder, Vertex: LandmarkLeftElbow, C: LandmarkLeftWrist},
	{ID: JointRightKnee, DisplayName: "Right Knee", A: LandmarkRightHip, Vertex: LandmarkRightKnee, C: LandmarkRightAnkle},
	{ID: JointLeftKnee, DisplayName: "Left Knee", A: LandmarkLeftHip, Vertex: LandmarkLeftKnee, C: LandmarkLeftAnkle},
	{ID: JointHip, DisplayName: "Hip", A: LandmarkLeftHip, Vertex: LandmarkRightHip, C: LandmarkLeftKnee},
	{ID: JointTorso, DisplayName: "Torso", A: LandmarkLeftShoulder, Vertex: LandmarkLeftHip, C: LandmarkRightHip},
	{ID: JointRightShoulder, DisplayName: "Right Shoulder", A: LandmarkRightHip, Vertex: LandmarkRightShoulder, C: LandmarkRightElbow},
	{ID: JointLeftShoulder, DisplayName: "Left Shoulder", A: LandmarkLeftHip, Vertex: LandmarkLeftShoulder, C: LandmarkLeftElbow},
}

// GetJoint returns the joint definition for an ID
func GetJoint(id JointID) (Joint, bool) {
	for _, j := range AllJoints {
		if j.ID == id {
			return j, true
		}
	}
	return Joint{}, false
}

// ParseJointID validates a joint name. Anything outside AllJoints is an error.
func ParseJointID(name string) (JointID, error) {
	if j, ok := GetJoint(JointID(name)); ok {
		return j.ID, nil
	}
	return "", fmt.Errorf("unknown joint %q", name)
}

// DisplayName returns the human readable joint name
func (id JointID) DisplayName() string {
	if j, ok := GetJoint(id); ok {
		return j.DisplayName
	}
	return string(id)
}
