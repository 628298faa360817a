package scanning

// imageMIMEType tags every uploaded image, whatever its real format.
// Enable normalization to make the tag match the bytes.
const imageMIMEType = "image/jpeg"

// receiptScanPrompt is the shared prompt used by all LLM providers for scanning receipts
const receiptScanPrompt = `You are a professional receipt information extraction assistant. Please analyze this receipt image and return the following information in JSON format:
1. ` + "`store_name`" + `: Name of the store.
2. ` + "`payment_method`" + `: Type of payment method or account (e.g., VISA, Mastercard, Cash, Apple Pay). If there are multiple, choose the primary one.
3. ` + "`items`" + `: A list of all purchased items, each as an object containing ` + "`name`" + ` (item name) and ` + "`price`" + ` (price).
4. ` + "`total_amount`" + `: Total amount spent.
5. ` + "`category`" + `: Based on the purchased items, define a reasonable category for this expense (e.g., Dining, Grocery, Transportation, Electronics, Clothing, etc.).

If any information cannot be found, set its value to "N/A". Please ensure the returned content is pure JSON format, without any extra explanation or Markdown markup.`
