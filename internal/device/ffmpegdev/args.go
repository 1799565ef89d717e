package ffmpegdev

// Input describes the V4L2 capture input shared by every ffmpeg invocation.
type Input struct {
	Device      string
	InputFormat string // e.g. mjpeg, yuyv422
	Resolution  string // WxH
	FPS         string
}

func baseArgs() []string {
	return []string{"-hide_banner", "-nostdin", "-loglevel", "level+warning"}
}

func (in Input) args() []string {
	args := []string{"-f", "v4l2"}
	if in.InputFormat != "" {
		args = append(args, "-input_format", in.InputFormat)
	}
	if in.Resolution != "" {
		args = append(args, "-video_size", in.Resolution)
	}
	if in.FPS != "" {
		args = append(args, "-framerate", in.FPS)
	}
	return append(args, "-i", in.Device)
}

// stillArgs grabs one frame as JPEG on stdout.
func stillArgs(in Input) []string {
	args := baseArgs()
	args = append(args, in.args()...)
	return append(args,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "2",
		"pipe:1",
	)
}

// recordArgs writes fragmented MP4 to stdout so it can be consumed as it
// is produced.
func recordArgs(in Input, encoder string) []string {
	if encoder == "" {
		encoder = "libx264"
	}
	args := baseArgs()
	args = append(args, in.args()...)
	args = append(args, "-c:v", encoder)
	if encoder == "libx264" {
		args = append(args, "-preset", "ultrafast", "-tune", "zerolatency")
	}
	return append(args,
		"-pix_fmt", "yuv420p",
		"-an",
		"-f", "mp4",
		"-movflags", "frag_keyframe+empty_moov+default_base_moof",
		"pipe:1",
	)
}
