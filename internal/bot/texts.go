package bot

// Reply keyboard labels. They double as the text the client sends back.
const (
	btnBrowse     = "📚 Browse Courses"
	btnSearch     = "🔍 Search Courses"
	btnCategories = "🗂️ Course Categories"
	btnPurchases  = "🛒 My Purchases"
	btnRequest    = "✍️ Request a Course"
	btnDMCA       = "📜 DMCA & Policy"
	btnHelp       = "❓ Help"
	btnCancelReq  = "❌ Cancel Request"
)

const (
	msgPasswordPrompt    = "🔐 This bot is password protected. Please enter the password to continue."
	msgWelcome           = "👋 %s\n\nUse the buttons below to navigate."
	msgPasswordCorrect   = "✅ Password correct!\n\n👋 %s\n\nUse the buttons below to navigate."
	msgPasswordIncorrect = "❌ Incorrect password. Please try again or contact the admin."
	msgBanned            = "🚫 You have been banned from using this bot."
	msgGenericError      = "⚠️ Something went wrong. Please try again later."

	msgCourseList     = "📚 Here are our available courses. Click on any course to view details:"
	msgNoCourses      = "😔 No courses are currently available. Please check back later."
	msgCoursesFailed  = "Error fetching courses. Please try again later."
	msgCourseNotFound = "❌ Course not found or no longer available."
	msgMainMenu       = "🏠 Main Menu - Please use the keyboard buttons below to navigate."
	msgCancelled      = "❌ Operation cancelled. Use /courses to browse courses or /start to begin again."

	msgHelp = "📚 *Course Delivery Bot Help*\n\n" +
		"Here's how to use this bot:\n\n" +
		"1️⃣ *Browse Courses* - View all available courses\n" +
		"2️⃣ *Search Courses* - Find courses by name or category\n" +
		"3️⃣ *Course Categories* - Browse courses by category\n" +
		"4️⃣ *My Purchases* - See the courses you have bought\n" +
		"5️⃣ *Buy a Course* - Select a course, choose a payment method and send a screenshot of your payment\n" +
		"6️⃣ *Get Access* - Once your payment is verified you receive the course link\n\n" +
		"Commands:\n" +
		"/start - Start the bot\n" +
		"/courses - Browse available courses\n" +
		"/search - Search for courses\n" +
		"/help - Show this help message"

	msgSearchPrompt  = "🔍 Please enter your search query. You can search by course name or category."
	msgSearchResults = "🔍 Search results for '%s':\n\nFound %d courses. Tap on a course to view details:"

	msgSearchEmpty = "❌ No courses found matching your search. Please try a different query or browse all courses.\n\n" +
		"Alternatively, you can find a list of all available courses here: %s"

	msgSearchFailed = "An error occurred during search. Please try again."

	msgCourseDetail    = "📚 *%s*\n\n📝 *Description:* %s\n\n💰 *Price:* %s\n\n🏷️ *Category:* %s"
	noteImageOnWebsite = "\n\n_Note: Course image available on website_"
	noteImageFailed    = "\n\n_Note: Course image could not be displayed._"

	msgPaymentOptions    = "💰 *Payment for: %s*\n\n💵 Amount: %s\n\nPlease select your preferred payment method:"
	noteBuyFromAdmin     = "\n\n_Note: For faster processing, you can buy directly from our admin._"
	noteNoMethods        = "\n\n⚠️ No payment methods are available right now. Please contact the admin."
	msgMethodUnavailable = "%s payment is currently unavailable. Please select another method."

	msgCODDetails = "Cash on Delivery: Please be ready with %s. Our representative will contact you for delivery details."

	msgPaymentInstructions = "💳 *Payment Instructions*\n\nYou've selected: *%s* for *%s*\n\n📝 *Details:*\n%s\n\n💰 *Amount:* %s\n\n" +
		"Please make the payment and send a screenshot as proof. Once verified, you'll receive access to the course."

	msgQRCaption = "Scan this QR Code for UPI Payment (%s) for %s"
	noteQRFailed = "\n\n_Note: The QR code could not be displayed. Please use the details above._"

	msgGiftPrompt = "💳 *Gift Card Redemption*\n\nYou've selected to pay with a gift card for: *%s*\n\n💰 *Amount:* %s\n\n" +
		"Please enter your gift card code. We accept Amazon, Google Play, and other popular gift cards.\n\n" +
		"_Note: Gift card redemption is subject to manual verification and may take up to 24 hours._"

	msgGiftSubmitted = "✅ Your gift card code has been submitted successfully!\n\n📝 *Details:*\n- Course: %s\n- Amount: %s\n- Gift Card Code: %s\n\n" +
		"⏳ Your code is being verified by our admin team. This process may take up to 24 hours.\n\n" +
		"You'll be notified once your payment is approved."

	msgGiftCancelled     = "❌ Gift card redemption cancelled."
	msgGiftMissingCourse = "❌ Error processing gift card: Course information missing. Please try again or contact support."
	msgGiftCourseGone    = "❌ Course not found or no longer available for gift card redemption."
	msgGiftFailed        = "An error occurred while submitting your gift card. Please contact support."

	msgUnexpectedPhoto = "❓ I wasn't expecting a photo. If you're trying to submit a payment proof, please select a course and payment method first."
	msgPhotoFailed     = "Error processing photo. Please try sending it again."
	msgInvalidImage    = "❌ The file you sent doesn't appear to be a valid image. Please try again."
	msgDuplicateProof  = "⚠️ This payment proof appears to be a duplicate. If this is a mistake, please contact the admin."
	msgProofCourseGone = "❌ Course not found for this payment. Please try again or contact support."
	msgProofSaveFailed = "❌ Error saving payment proof file. Please try again or contact admin."
	msgProofDBFailed   = "An error occurred while recording your payment. Please contact support."
	msgProofPending    = "✅ Your payment proof has been submitted and is pending verification by an admin. You'll be notified once it's approved."
	msgAutoApproveFail = "✅ Your payment proof has been submitted but auto-approval failed. It is pending manual verification. You'll be notified once it's approved."

	msgAccessPaid = "🎉 *Payment Approved!*\n\nYou now have access to: *%s*\n\n🔗 *Access your course here:*\n[Course Link](%s)\n\n" +
		"Thank you for your purchase! If you have any questions or issues, please contact support."

	msgAccessFree = "🎉 *Here is your free course!*\n\nYou now have access to: *%s*\n\n🔗 *Access your course here:*\n[Course Link](%s)\n\n" +
		"Enjoy learning! If you have any questions or issues, please contact support."

	msgRejected = "❌ Your payment for *%s* could not be verified and has been rejected.\n\nIf you believe this is a mistake, please contact the admin."

	msgCategoriesMenu   = "🗂️ *Course Categories*\n\nSelect a category to view its courses:"
	msgNoCategories     = "😔 No course categories are currently available. Please check back later or browse all courses."
	msgCategoriesEmpty  = "😔 No courses are currently available in any category. Please check back later or browse all courses."
	msgCategoriesFailed = "Could not load categories. Please try again."
	msgCategoryCourses  = "📚 Courses in *%s*:\n\nTap on a course to view details:"
	msgCategoryEmpty    = "😔 No active courses found in the category: *%s*."
	msgCategoryNotFound = "❌ Category not found."

	msgPurchasesHeader     = "🛒 *Your Purchases:*\n\n"
	msgPurchaseItem        = "%d. *%s*\n   💰 Price Paid: %s\n   📅 Purchased: %s\n   🔗 [Access Course](%s)\n\n"
	msgPurchaseItemMissing = "%d. *Course ID: %d* (Details unavailable)\n   📅 Purchased: %s\n\n"
	msgPurchasesTruncated  = "\n\n... (list truncated due to length)"
	msgNoPurchases         = "You haven't purchased any courses yet. Use /courses or the '📚 Browse Courses' button to see available courses."
	msgPurchasesFailed     = "Could not load your purchases. Please try again later."

	msgDMCA = "📜 *DMCA Copyright & Policy*\n\n%s"

	msgRequestPrompt    = "✍️ Please describe the course you would like to request. Include as much detail as possible (e.g., name, instructor, topics)."
	msgRequestCancelled = "✅ Course request cancelled."
	msgRequestSaved     = "✅ Thank you! Your course request has been submitted. Our admin team will review it."
	msgRequestFailed    = "An error occurred while submitting your course request. Please contact support."

	msgSpam    = "⚠️ Your message has been flagged as potential spam and will not be processed."
	msgUnknown = "I don't understand this command. Please use the buttons or /help for assistance."
)

// maxMessageUnits is Telegram's message length limit, counted in UTF-16 code units.
const maxMessageUnits = 4096
