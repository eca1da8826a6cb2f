package meeting

type CreateMeetingDTO struct {
	Title string `json:"title" binding:"required,max=255"`
}

// UpdateMeetingDTO uses pointers so absent fields stay untouched.
type UpdateMeetingDTO struct {
	Title         *string `json:"title" binding:"omitempty,max=255"`
	RawTranscript *string `json:"raw_transcript"`
	Subject       *string `json:"subject"`
	Keywords      *string `json:"keywords"`
	Speakers      *string `json:"speakers"`
	Terminology   *string `json:"terminology"`
	TargetLength  *string `json:"target_length"`
}
