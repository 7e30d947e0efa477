package usrp

import "testing"

func TestVoiceFrameRoundTrip(t *testing.T) {
	samples := make([]byte, VoiceFrameSize)
	for i := range samples {
		samples[i] = byte(i)
	}
	raw := Encode(NewVoiceFrame(42, samples))
	f, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.Seq != 42 || !f.Keyup || f.Type != TypeVoice {
		t.Fatalf("unexpected frame: %+v", f)
	}
	if len(f.Payload) != VoiceFrameSize {
		t.Fatalf("expected %d byte payload, got %d", VoiceFrameSize, len(f.Payload))
	}
}

func TestUnkeyMarker(t *testing.T) {
	raw := Encode(NewUnkeyFrame(7))
	f, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !IsUnkeyMarker(f) {
		t.Fatalf("expected unkey marker")
	}
}

func TestDTMFFrameRoundTrip(t *testing.T) {
	raw := Encode(NewDTMFFrame(3, "159#"))
	f, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.Type != TypeControl || string(f.Payload) != "159#" {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	raw := Encode(NewUnkeyFrame(1))
	raw[0] = 'X'
	if _, err := Decode(raw); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for short frame")
	}
}

func TestDecodeRejectsBadVoiceSize(t *testing.T) {
	raw := Encode(NewVoiceFrame(1, []byte{1, 2, 3}))
	if _, err := Decode(raw); err == nil {
		t.Fatalf("expected error for wrong-size voice payload")
	}
}
