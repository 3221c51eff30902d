package mail

import "fmt"

func VerificationMessage(to, username, verificationURL string) Message {
	body := fmt.Sprintf(`Hi %s,

Welcome aboard! To verify your email please open the link below:

%s

The link expires shortly, so don't wait too long.

Need help, or have questions? Just reply to this email, we'd love to help.`,
		username, verificationURL)

	return Message{
		To:      to,
		Subject: "Please verify your email",
		Body:    body,
	}
}

func PasswordResetMessage(to, username, resetURL string) Message {
	body := fmt.Sprintf(`Hi %s,

We got a request to reset your password. To choose a new one please open the
link below:

%s

If you did not request this, you can safely ignore this email.

Need help, or have questions? Just reply to this email, we'd love to help.`,
		username, resetURL)

	return Message{
		To:      to,
		Subject: "Password reset request",
		Body:    body,
	}
}
